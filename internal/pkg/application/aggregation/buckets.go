package aggregation

import (
	"time"

	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

// Align floors t to the start of the largest calendar unit present in the
// period, in the given location. Weeks start on Monday.
func Align(t time.Time, period temporal.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}

	t = t.In(loc)
	y, m, d := t.Date()

	switch {
	case period.Years > 0:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case period.Months > 0:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case period.Weeks > 0:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case period.Days > 0:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case period.Clock >= time.Hour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case period.Clock >= time.Minute:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
	default:
		return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
	}
}

// Bucket is a half open interval [Start, End) holding the instances that
// are aggregated together
type Bucket struct {
	Start     time.Time
	End       time.Time
	Instances []temporal.AttributeInstance
}

// Partition assigns instances, sorted by ascending time, to consecutive
// buckets of the given period starting at origin. Empty buckets are not
// returned. A zero period puts every instance in a single bucket that spans
// origin to end.
func Partition(instances []temporal.AttributeInstance, origin, end time.Time, period temporal.Duration, loc *time.Location) []Bucket {
	buckets := []Bucket{}

	if len(instances) == 0 {
		return buckets
	}

	if period.IsZero() {
		return append(buckets, Bucket{Start: origin, End: end, Instances: instances})
	}

	calendar := period.Years > 0 || period.Months > 0 || period.Weeks > 0 || period.Days > 0

	current := Bucket{Start: Align(origin, period, loc)}
	current.End = period.AddTo(current.Start)

	for _, i := range instances {
		if i.Time.Before(current.Start) {
			continue
		}

		if !i.Time.Before(current.End) {
			if len(current.Instances) > 0 {
				buckets = append(buckets, current)
			}

			start := current.End
			if !calendar {
				start = start.Add(i.Time.Sub(start).Truncate(period.Clock))
			}

			current = Bucket{Start: start, End: period.AddTo(start)}
			for !i.Time.Before(current.End) {
				current.Start, current.End = current.End, period.AddTo(current.End)
			}
		}

		current.Instances = append(current.Instances, i)
	}

	if len(current.Instances) > 0 {
		buckets = append(buckets, current)
	}

	return buckets
}
