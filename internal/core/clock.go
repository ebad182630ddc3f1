package core

import "time"

// Clock supplies the current time. Every "today" and "current invoice"
// computation goes through a Clock so tests can pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// Today returns the calendar date of the clock in its own location.
func Today(c Clock) Date {
	return DateOf(c.Now())
}
