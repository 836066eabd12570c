package briefing

import "time"

// DateKey formats the calendar-day identity of a briefing.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last instant of t's calendar day in loc. Bounds are
// inclusive on both ends, so selection is [StartOfDay, EndOfDay]. Computing
// the next midnight and stepping back keeps DST transition days correct.
// The step is a full microsecond: timestamptz stores microseconds and would
// round .999999999 up to the next midnight, double-counting that instant.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	nextMidnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return nextMidnight.Add(-time.Microsecond)
}
