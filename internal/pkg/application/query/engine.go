package query

import (
	"context"
	"slices"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/diwise/troe/internal/pkg/application/aggregation"
	"github.com/diwise/troe/internal/pkg/infrastructure/database"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("troe/query")

// FailurePolicy decides what happens when an aggregation method can not be
// computed for one bucket
type FailurePolicy string

const (
	SkipFailures FailurePolicy = "skip"
	FailOnError  FailurePolicy = "fail"
)

type Engine struct {
	store    database.InstanceStore
	location *time.Location
	failures FailurePolicy
	now      func() time.Time
}

type EngineOption func(*Engine)

// WithLocation sets the time zone that aggregation buckets are aligned in
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

func WithFailurePolicy(policy FailurePolicy) EngineOption {
	return func(e *Engine) {
		if policy == FailOnError {
			e.failures = FailOnError
		}
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store database.InstanceStore, options ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		location: time.UTC,
		failures: SkipFailures,
		now:      time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

// Search returns the history of one attribute in the requested representation
func (e *Engine) Search(ctx context.Context, q temporal.Query, attr temporal.Attribute, representation temporal.Representation) (results []temporal.InstanceResult, err error) {
	ctx, span := tracer.Start(ctx, "search", trace.WithAttributes(
		attribute.String("attribute", attr.Name),
		attribute.String("datasetId", attr.DatasetID),
	))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if q.IsAggregated() {
		return e.aggregate(ctx, q, attr)
	}

	selection := database.RangeSelection{
		AttributeUUID: attr.UUID,
		TimeProperty:  q.TimeProperty,
		TimeRel:       q.TimeRel,
		TimeAt:        q.TimeAt,
		EndTimeAt:     q.EndTimeAt,
		Limit:         q.InstanceLimit,
	}

	if q.HasLastN() {
		selection.Descending = true
		selection.Limit = q.LastN
	}

	instances, err := e.store.RangeSelect(ctx, selection)
	if err != nil {
		return nil, err
	}

	results = make([]temporal.InstanceResult, 0, len(instances))

	for _, i := range instances {
		if representation == temporal.TemporalValues {
			value, err := attr.ValueType.Decode(i)
			if err != nil {
				return nil, err
			}
			results = append(results, temporal.SimplifiedInstanceResult{AttrUUID: attr.UUID, Time: i.Time, Value: value})
			continue
		}

		results = append(results, temporal.FullInstanceResult{
			AttrUUID:     attr.UUID,
			InstanceID:   i.InstanceID,
			Time:         i.Time,
			TimeProperty: i.TimeProperty,
			Payload:      i.Payload,
			Sub:          i.Sub,
		})
	}

	return results, nil
}

func (e *Engine) aggregate(ctx context.Context, q temporal.Query, attr temporal.Attribute) ([]temporal.InstanceResult, error) {
	if err := aggregation.CheckSupported(q.AggrMethods, attr); err != nil {
		return nil, err
	}

	results := []temporal.InstanceResult{}

	var origin, end time.Time

	switch q.TimeRel {
	case temporal.TimeRelAfter, temporal.TimeRelBetween:
		origin = q.TimeAt
	default:
		oldest, err := e.store.SelectOldestTime(ctx, []uuid.UUID{attr.UUID}, q.TimeProperty)
		if err != nil {
			return nil, err
		}
		if oldest == nil {
			return results, nil
		}
		origin = *oldest
	}

	switch q.TimeRel {
	case temporal.TimeRelBetween:
		end = q.EndTimeAt
	case temporal.TimeRelBefore:
		end = q.TimeAt
	default:
		end = e.now()
	}

	instances, err := e.store.RangeSelect(ctx, database.RangeSelection{
		AttributeUUID: attr.UUID,
		TimeProperty:  q.TimeProperty,
		TimeRel:       q.TimeRel,
		TimeAt:        q.TimeAt,
		EndTimeAt:     q.EndTimeAt,
	})
	if err != nil {
		return nil, err
	}

	buckets := aggregation.Partition(instances, origin, end, q.AggrPeriodDuration, e.location)

	// only whole buckets that fit the instance limit are kept, the most
	// recent ones when lastN is set
	keep := q.InstanceLimit
	if q.HasLastN() {
		keep = min(q.LastN, q.InstanceLimit)
	}

	if len(buckets) > keep {
		if q.HasLastN() {
			buckets = buckets[len(buckets)-keep:]
		} else {
			buckets = buckets[:keep]
		}
	}

	if q.HasLastN() {
		slices.Reverse(buckets)
	}

	log := logging.GetFromContext(ctx)

	for _, b := range buckets {
		result := temporal.AggregatedInstanceResult{
			AttrUUID: attr.UUID,
			Start:    b.Start,
			End:      b.End,
			Values:   make([]temporal.AggregateValue, 0, len(q.AggrMethods)),
		}

		for _, method := range q.AggrMethods {
			value, err := aggregation.Aggregate(method, attr.ValueType, b.Instances)
			if err != nil {
				if e.failures == FailOnError {
					return nil, err
				}
				log.Warn("failed to aggregate bucket", "attribute", attr.Name, "method", string(method), "start", b.Start, "err", err.Error())
			}
			result.Values = append(result.Values, temporal.AggregateValue{Method: method, Value: value, Failure: err})
		}

		results = append(results, result)
	}

	return results, nil
}
