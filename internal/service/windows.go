package service

import "time"

const (
	dateLayout = "2006-01-02"

	weekWindow       = 7 * 24 * time.Hour
	monthWindow      = 30 * 24 * time.Hour
	endingSoonWindow = 3 * 24 * time.Hour
)

// Windows holds the intervals a snapshot covers, all derived from one
// reference instant in one location.
//
//	today:       [TodayStart, Reference]
//	week:        [WeekStart, Reference]
//	month:       [MonthStart, Reference]
//	ending soon: [Reference, EndingSoonUntil]
//
// TodayStart is never before WeekStart, so every 7-day counter includes the
// matching today counter.
type Windows struct {
	Location        *time.Location
	Reference       time.Time
	TodayStart      time.Time
	WeekStart       time.Time
	MonthStart      time.Time
	EndingSoonUntil time.Time
}

// NewWindows computes the windows for ref in loc. A nil loc means UTC.
func NewWindows(ref time.Time, loc *time.Location) Windows {
	if loc == nil {
		loc = time.UTC
	}
	ref = ref.In(loc)
	y, m, d := ref.Date()

	return Windows{
		Location:        loc,
		Reference:       ref,
		TodayStart:      time.Date(y, m, d, 0, 0, 0, 0, loc),
		WeekStart:       ref.Add(-weekWindow),
		MonthStart:      ref.Add(-monthWindow),
		EndingSoonUntil: ref.Add(endingSoonWindow),
	}
}

// Today is the calendar date of the reference instant
func (w Windows) Today() string {
	return w.Reference.Format(dateLayout)
}

// WeekStartDate is the calendar date the 7-day window opens on
func (w Windows) WeekStartDate() string {
	return w.WeekStart.Format(dateLayout)
}

// MonthStartDate is the calendar date the 30-day window opens on
func (w Windows) MonthStartDate() string {
	return w.MonthStart.Format(dateLayout)
}
