package pagination

import (
	"time"

	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

// boundary names where one end of a discriminating range is taken from
type boundary int

const (
	queryTimeAt boundary = iota
	queryEndTimeAt
	earliestFirst
	latestFirst
	earliestLimit
	latestLimit
)

type decisionKey struct {
	timerel temporal.TimeRel
	lastN   bool
}

type decision struct {
	start boundary
	end   boundary
}

// Without lastN the pages move forward in time and the range ends where the
// first attribute runs out of room. With lastN they move backwards from the
// newest side.
var decisions = map[decisionKey]decision{
	{temporal.NoTimeRel, false}:      {start: earliestFirst, end: earliestLimit},
	{temporal.TimeRelBefore, false}:  {start: earliestFirst, end: earliestLimit},
	{temporal.TimeRelAfter, false}:   {start: queryTimeAt, end: earliestLimit},
	{temporal.TimeRelBetween, false}: {start: queryTimeAt, end: earliestLimit},
	{temporal.NoTimeRel, true}:       {start: latestFirst, end: latestLimit},
	{temporal.TimeRelAfter, true}:    {start: latestFirst, end: latestLimit},
	{temporal.TimeRelBefore, true}:   {start: queryTimeAt, end: latestLimit},
	{temporal.TimeRelBetween, true}:  {start: queryEndTimeAt, end: latestLimit},
}

// window is the time extent of the instances returned for one attribute that
// reached the instance limit
type window struct {
	first time.Time
	limit time.Time
}

// GetRangeAndPaginatedTEA detects if any attribute of an entity was truncated
// by the instance limit. If so, every attribute is cut down to one shared time
// range that is returned so that the client can ask for the next page.
func GetRangeAndPaginatedTEA(results []temporal.AttributeResults, q temporal.Query) ([]temporal.AttributeResults, *temporal.Range) {
	limit := q.InstanceLimit

	if q.HasLastN() && q.LastN <= limit {
		return results, nil
	}

	if q.IsAggregated() {
		return results, aggregatedRange(results, limit)
	}

	windows := []window{}

	for _, r := range results {
		if len(r.Instances) >= limit {
			windows = append(windows, window{
				first: r.Instances[0].ComparableTime(),
				limit: r.Instances[limit-1].ComparableTime(),
			})
		}
	}

	if len(windows) == 0 {
		return results, nil
	}

	d := decisions[decisionKey{timerel: q.TimeRel, lastN: q.HasLastN()}]

	r := temporal.Range{
		Start: resolve(d.start, q, windows),
		End:   resolve(d.end, q, windows),
	}

	filtered := make([]temporal.AttributeResults, 0, len(results))

	for _, ar := range results {
		instances := make([]temporal.InstanceResult, 0, len(ar.Instances))
		for _, i := range ar.Instances {
			if r.Contains(i.ComparableTime()) {
				instances = append(instances, i)
			}
		}
		filtered = append(filtered, temporal.AttributeResults{Attribute: ar.Attribute, Instances: instances})
	}

	return filtered, &r
}

func resolve(b boundary, q temporal.Query, windows []window) time.Time {
	pick := func(get func(window) time.Time, better func(a, b time.Time) bool) time.Time {
		t := get(windows[0])
		for _, w := range windows[1:] {
			if better(get(w), t) {
				t = get(w)
			}
		}
		return t
	}

	first := func(w window) time.Time { return w.first }
	limit := func(w window) time.Time { return w.limit }
	before := func(a, b time.Time) bool { return a.Before(b) }
	after := func(a, b time.Time) bool { return a.After(b) }

	switch b {
	case queryTimeAt:
		return q.TimeAt
	case queryEndTimeAt:
		return q.EndTimeAt
	case earliestFirst:
		return pick(first, before)
	case latestFirst:
		return pick(first, after)
	case earliestLimit:
		return pick(limit, before)
	default:
		return pick(limit, after)
	}
}

// aggregatedRange spans the buckets of the first attribute that has any, when
// that attribute filled the instance limit. Buckets share one calendar so the
// results are left as they are. The range starts on the side the pages move
// away from, so with lastN it runs from the end of the newest bucket back to
// the start of the oldest.
func aggregatedRange(results []temporal.AttributeResults, limit int) *temporal.Range {
	for _, r := range results {
		if len(r.Instances) == 0 {
			continue
		}

		if len(r.Instances) < limit {
			return nil
		}

		first, firstOk := r.Instances[0].(temporal.AggregatedInstanceResult)
		last, lastOk := r.Instances[len(r.Instances)-1].(temporal.AggregatedInstanceResult)
		if !firstOk || !lastOk {
			return nil
		}

		if first.Start.After(last.Start) {
			return &temporal.Range{Start: first.End, End: last.Start}
		}

		return &temporal.Range{Start: first.Start, End: last.End}
	}

	return nil
}
