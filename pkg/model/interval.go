package model

import "time"

// TimeInterval is a half-open range [Start, End).
type TimeInterval struct {
	Start time.Time `json:"start_time" bson:"start_time"`
	End   time.Time `json:"end_time" bson:"end_time"`
}

func NewInterval(start, end time.Time) TimeInterval {
	return TimeInterval{Start: start, End: end}.Normalize()
}

// Normalize converts both ends to UTC at millisecond precision, the precision
// the stores keep.
func (i TimeInterval) Normalize() TimeInterval {
	return TimeInterval{
		Start: i.Start.UTC().Truncate(time.Millisecond),
		End:   i.End.UTC().Truncate(time.Millisecond),
	}
}

func (i TimeInterval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && i.Start.Before(i.End)
}

// Overlaps reports whether the two intervals share at least one instant.
// Intervals that only touch (a.End == b.Start) do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
