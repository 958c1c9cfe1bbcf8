package meteosat

import (
	"fmt"
	"time"
)

// Timestamp identifies one published image slot at hourly resolution.
// The archive has no sub-hour granularity, so minutes and seconds do not
// exist here. The zero value is not a valid timestamp.
type Timestamp struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// NewTimestamp builds a Timestamp, validating that the components form a
// real calendar date and that the hour is within [0, 23].
func NewTimestamp(year, month, day, hour int) (Timestamp, error) {
	if hour < 0 || hour > 23 {
		return Timestamp{}, fmt.Errorf("meteosat: hour %d out of range [0, 23]", hour)
	}
	t := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return Timestamp{}, fmt.Errorf("meteosat: invalid date %d-%d-%d", year, month, day)
	}
	return Timestamp{Year: year, Month: month, Day: day, Hour: hour}, nil
}

// FromTime truncates t to the hour, in UTC.
func FromTime(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour()}
}

// Parse accepts "2006-01-02T15" or a bare date "2006-01-02" (hour 0).
func Parse(s string) (Timestamp, error) {
	if t, err := time.ParseInLocation("2006-01-02T15", s, time.UTC); err == nil {
		return FromTime(t), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("meteosat: parse timestamp %q (want 2006-01-02T15 or 2006-01-02): %w", s, err)
	}
	return FromTime(t), nil
}

// Time returns the timestamp as a UTC time.Time at the top of the hour.
func (ts Timestamp) Time() time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day, ts.Hour, 0, 0, 0, time.UTC)
}

// Add returns the timestamp shifted by the given number of hours, which
// may be negative. Day and month boundaries roll over normally.
func (ts Timestamp) Add(hours int) Timestamp {
	return FromTime(ts.Time().Add(time.Duration(hours) * time.Hour))
}

// Before reports whether ts is chronologically before other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.Time().Before(other.Time())
}

// Label is the human-readable caption burned into downloaded images.
func (ts Timestamp) Label() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:00 UTC", ts.Year, ts.Month, ts.Day, ts.Hour)
}

// String formats the timestamp in the flag syntax accepted by Parse.
func (ts Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d", ts.Year, ts.Month, ts.Day, ts.Hour)
}
