package chrono

import (
	"time"
	_ "time/tzdata"
)

var la *time.Location

func init() {
	var err error
	la, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// LA returns a [*time.Location] for America/Los_Angeles
func LA() *time.Location {
	return la
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in America/Los_Angeles, school days are
	// counted in the portal's timezone regardless of where the server runs.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(la)
}

// FixedTime is a TimeAPI that always returns the same instant.
type FixedTime struct {
	Time time.Time
}

func (f FixedTime) Now() time.Time {
	return f.Time.In(la)
}

// StartOfDay returns midnight in LA of the day t falls on.
func StartOfDay(t time.Time) time.Time {
	t = t.In(la)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, la)
}

// DayBounds returns the start of the day t falls on and the start of the next.
func DayBounds(t time.Time) (start, end time.Time) {
	start = StartOfDay(t)
	end = time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, la)
	return start, end
}
