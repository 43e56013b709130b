package temporal

import (
	"fmt"
	"slices"
	"time"

	"github.com/diwise/troe/pkg/ngsild/errors"
)

type TimeRel string

const (
	NoTimeRel      TimeRel = ""
	TimeRelBefore  TimeRel = "before"
	TimeRelAfter   TimeRel = "after"
	TimeRelBetween TimeRel = "between"
)

func ParseTimeRel(s string) (TimeRel, error) {
	switch tr := TimeRel(s); tr {
	case NoTimeRel, TimeRelBefore, TimeRelAfter, TimeRelBetween:
		return tr, nil
	default:
		return "", errors.NewBadRequestDataError(fmt.Sprintf("unknown timerel %q", s))
	}
}

type Representation int

const (
	Full Representation = iota
	TemporalValues
	AggregatedValues
)

func (r Representation) String() string {
	switch r {
	case TemporalValues:
		return "temporalValues"
	case AggregatedValues:
		return "aggregatedValues"
	default:
		return "full"
	}
}

const DefaultInstanceLimit int = 100

// Query describes what part of the history of an attribute should be
// returned and how. Construct it with NewQuery.
type Query struct {
	TimeRel            TimeRel
	TimeAt             time.Time
	EndTimeAt          time.Time
	TimeProperty       TimeProperty
	LastN              int
	InstanceLimit      int
	AggrMethods        []AggregationMethod
	AggrPeriodDuration Duration
}

type QueryDecoratorFunc func(q *Query) error

func NewQuery(decorators ...QueryDecoratorFunc) (Query, error) {
	q := Query{
		TimeProperty:  ObservedAt,
		InstanceLimit: DefaultInstanceLimit,
	}

	for _, decorate := range decorators {
		if err := decorate(&q); err != nil {
			return Query{}, err
		}
	}

	if err := q.validate(); err != nil {
		return Query{}, err
	}

	q.AggrMethods = slices.Clone(q.AggrMethods)

	return q, nil
}

func (q Query) HasLastN() bool {
	return q.LastN > 0
}

func (q Query) IsAggregated() bool {
	return len(q.AggrMethods) > 0
}

func (q Query) validate() error {
	if q.TimeRel != NoTimeRel && q.TimeAt.IsZero() {
		return errors.NewBadRequestDataError("timerel requires a timeAt")
	}

	if q.TimeRel == TimeRelBetween {
		if q.EndTimeAt.IsZero() {
			return errors.NewBadRequestDataError("timerel between requires an endTimeAt")
		}
		if !q.EndTimeAt.After(q.TimeAt) {
			return errors.NewBadRequestDataError("endTimeAt must be later than timeAt")
		}
	}

	if q.LastN < 0 {
		return errors.NewBadRequestDataError(fmt.Sprintf("lastN must be a positive integer (got %d)", q.LastN))
	}

	if q.InstanceLimit <= 0 {
		return errors.NewBadRequestDataError(fmt.Sprintf("instance limit must be a positive integer (got %d)", q.InstanceLimit))
	}

	return nil
}

func Before(timeAt time.Time) QueryDecoratorFunc {
	return func(q *Query) error {
		q.TimeRel, q.TimeAt = TimeRelBefore, timeAt
		return nil
	}
}

func After(timeAt time.Time) QueryDecoratorFunc {
	return func(q *Query) error {
		q.TimeRel, q.TimeAt = TimeRelAfter, timeAt
		return nil
	}
}

func Between(timeAt, endTimeAt time.Time) QueryDecoratorFunc {
	return func(q *Query) error {
		q.TimeRel, q.TimeAt, q.EndTimeAt = TimeRelBetween, timeAt, endTimeAt
		return nil
	}
}

func WithTimeRel(timerel TimeRel, timeAt, endTimeAt time.Time) QueryDecoratorFunc {
	return func(q *Query) error {
		q.TimeRel, q.TimeAt, q.EndTimeAt = timerel, timeAt, endTimeAt
		return nil
	}
}

func OnTimeProperty(tp TimeProperty) QueryDecoratorFunc {
	return func(q *Query) error {
		q.TimeProperty = tp
		return nil
	}
}

func LastN(count int) QueryDecoratorFunc {
	return func(q *Query) error {
		q.LastN = count
		return nil
	}
}

func InstanceLimit(limit int) QueryDecoratorFunc {
	return func(q *Query) error {
		q.InstanceLimit = limit
		return nil
	}
}

func Aggregation(aggrMethods []AggregationMethod, decorators ...AggregationDurationDecoratorFunc) QueryDecoratorFunc {
	duration := "P"
	for _, decorate := range decorators {
		duration = decorate(duration)
	}

	if duration == "P" {
		duration = WholeRange
	}

	return AggregationWithPeriod(aggrMethods, duration)
}

func AggregationWithPeriod(aggrMethods []AggregationMethod, period string) QueryDecoratorFunc {
	return func(q *Query) error {
		if len(aggrMethods) == 0 {
			return errors.NewBadRequestDataError("at least one aggregation method is required")
		}

		for _, m := range aggrMethods {
			if !m.IsValid() {
				return errors.NewBadRequestDataError(fmt.Sprintf("unknown aggregation method %q", m))
			}
		}

		if period == "" {
			period = WholeRange
		}

		d, err := ParseDuration(period)
		if err != nil {
			return errors.NewBadRequestDataError(err.Error())
		}

		q.AggrMethods = aggrMethods
		q.AggrPeriodDuration = d

		return nil
	}
}
