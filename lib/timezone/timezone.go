package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Edmonton")
	if err != nil {
		panic(err)
	}
}

// class times on the catalog are campus local, so dates are always
// manipulated in the campus timezone regardless of where we run
func Now() time.Time {
	return time.Now().In(Location)
}

// NextWeekday returns the midnight of the first day on or after day that
// falls on weekday.
func NextWeekday(day time.Time, weekday time.Weekday) time.Time {
	offset := (int(weekday) - int(day.Weekday()) + 7) % 7
	return time.Date(day.Year(), day.Month(), day.Day()+offset, 0, 0, 0, 0, day.Location())
}

// At returns day at the given "HH:MM" clock time.
func At(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}
