package timex

// DaySeconds is the length of one UTC day in seconds.
const DaySeconds = 86400

// NextMidnight returns the next UTC midnight strictly after the start of the
// day containing now (i.e. the boundary of the current daily window).
func NextMidnight(now int64) int64 {
	return now/DaySeconds*DaySeconds + DaySeconds
}

// NextMonday returns the next Monday 00:00 UTC strictly after the start of
// the day containing now. If now falls on a Monday the result is the Monday
// one week later, never the current day.
//
// January 1, 1970 was a Thursday, so epoch day 0 has weekday Thursday and
// (days+3)%7 yields 0 for Monday through 6 for Sunday.
func NextMonday(now int64) int64 {
	days := now / DaySeconds
	dayOfWeek := (days + 3) % 7

	daysUntilMonday := int64(7)
	if dayOfWeek != 0 {
		daysUntilMonday = 7 - dayOfWeek
	}

	midnightToday := days * DaySeconds
	return midnightToday + daysUntilMonday*DaySeconds
}
