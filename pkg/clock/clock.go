package clock

import "time"

// Clock supplies the current time in the bot's fixed operating time zone.
// Both the extraction prompt builder and the report/reminder schedulers
// depend on it, so tests can pin "today".
type Clock interface {
	Now() time.Time
}

type zoneClock struct {
	loc *time.Location
}

// NewZoneClock returns a Clock fixed to the named IANA zone. An unknown
// zone falls back to UTC rather than failing startup.
func NewZoneClock(zone string) Clock {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return &zoneClock{loc: loc}
}

func (c *zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	Time time.Time
}

func (f Fixed) Now() time.Time {
	return f.Time
}

// Today formats a Clock's current date as YYYY-MM-DD.
func Today(c Clock) string {
	return c.Now().Format("2006-01-02")
}
