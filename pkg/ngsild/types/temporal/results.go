package temporal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Range is a pair of timestamps. Start and End are not ordered, the caller
// decides which side is the oldest.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies between the two endpoints, both included
func (r Range) Contains(t time.Time) bool {
	lo, hi := r.Start, r.End
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	return !t.Before(lo) && !t.After(hi)
}

type InstanceResult interface {
	AttributeUUID() uuid.UUID
	ComparableTime() time.Time
}

type FullInstanceResult struct {
	AttrUUID     uuid.UUID
	InstanceID   string
	Time         time.Time
	TimeProperty TimeProperty
	Payload      json.RawMessage
	Sub          *string
}

func (r FullInstanceResult) AttributeUUID() uuid.UUID  { return r.AttrUUID }
func (r FullInstanceResult) ComparableTime() time.Time { return r.Time }

type SimplifiedInstanceResult struct {
	AttrUUID uuid.UUID
	Time     time.Time
	Value    any
}

func (r SimplifiedInstanceResult) AttributeUUID() uuid.UUID  { return r.AttrUUID }
func (r SimplifiedInstanceResult) ComparableTime() time.Time { return r.Time }

// AggregateValue is the result of one aggregation method over one bucket.
// Failure is set when the values of the bucket could not be aggregated.
type AggregateValue struct {
	Method  AggregationMethod
	Value   any
	Failure error
}

// AggregatedInstanceResult holds the statistics of one bucket
type AggregatedInstanceResult struct {
	AttrUUID uuid.UUID
	Start    time.Time
	End      time.Time
	Values   []AggregateValue
}

func (r AggregatedInstanceResult) AttributeUUID() uuid.UUID  { return r.AttrUUID }
func (r AggregatedInstanceResult) ComparableTime() time.Time { return r.Start }

// AttributeResults groups the results returned for one attribute
type AttributeResults struct {
	Attribute Attribute
	Instances []InstanceResult
}
