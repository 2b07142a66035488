package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	testCases := []struct {
		name        string
		now         time.Time
		expectStart time.Time
		expectEnd   time.Time
	}{
		{
			name:        "afternoon",
			now:         time.Date(2024, time.August, 26, 15, 30, 0, 0, la),
			expectStart: time.Date(2024, time.August, 26, 0, 0, 0, 0, la),
			expectEnd:   time.Date(2024, time.August, 27, 0, 0, 0, 0, la),
		},
		{
			name:        "utc morning is the previous day in LA",
			now:         time.Date(2024, time.August, 27, 3, 0, 0, 0, time.UTC),
			expectStart: time.Date(2024, time.August, 26, 0, 0, 0, 0, la),
			expectEnd:   time.Date(2024, time.August, 27, 0, 0, 0, 0, la),
		},
		{
			name:        "end of month",
			now:         time.Date(2024, time.August, 31, 23, 59, 0, 0, la),
			expectStart: time.Date(2024, time.August, 31, 0, 0, 0, 0, la),
			expectEnd:   time.Date(2024, time.September, 1, 0, 0, 0, 0, la),
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			start, end := DayBounds(test.now)
			require.True(t, test.expectStart.Equal(start), "start %v", start)
			require.True(t, test.expectEnd.Equal(end), "end %v", end)
		})
	}
}

func TestFixedTime(t *testing.T) {
	instant := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := FixedTime{Time: instant}
	require.True(t, clock.Now().Equal(instant))
	require.Equal(t, la, clock.Now().Location())
}
