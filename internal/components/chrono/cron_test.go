package chrono

import (
	"testing"
	"time"

	"powerapi-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardCron(t *testing.T) {
	cron := NewStandardCron(telemetry.NewRecordingAPI())
	defer cron.Stop()

	require.Error(t, cron.Cron("not a spec", func() {}))

	ran := make(chan struct{}, 1)
	err := cron.Cron("@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(time.Second * 5):
		t.Fatal("job did not run")
	}
}
