package database

import (
	"context"
	"time"

	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/google/uuid"
)

// RangeSelection selects instances of one attribute on one time axis.
// A Limit <= 0 returns every matching instance.
// emptyPayload is stored for instances and entities that carry no payload of
// their own
const emptyPayload string = "{}"

type RangeSelection struct {
	AttributeUUID uuid.UUID
	TimeProperty  temporal.TimeProperty
	TimeRel       temporal.TimeRel
	TimeAt        time.Time
	EndTimeAt     time.Time
	Descending    bool
	Limit         int
}

// Matches applies the time predicate of the selection. Both ends of a
// between relation are excluded.
func (rs RangeSelection) Matches(t time.Time) bool {
	return timeMatches(rs.TimeRel, rs.TimeAt, rs.EndTimeAt, t)
}

func timeMatches(timerel temporal.TimeRel, timeAt, endTimeAt, t time.Time) bool {
	switch timerel {
	case temporal.TimeRelBefore:
		return t.Before(timeAt)
	case temporal.TimeRelAfter:
		return t.After(timeAt)
	case temporal.TimeRelBetween:
		return t.After(timeAt) && t.Before(endTimeAt)
	default:
		return true
	}
}

//go:generate moq -rm -out instancestore_mock.go . InstanceStore

type InstanceStore interface {
	Append(ctx context.Context, instance temporal.AttributeInstance) error
	RangeSelect(ctx context.Context, selection RangeSelection) ([]temporal.AttributeInstance, error)
	SelectOldestTime(ctx context.Context, attributes []uuid.UUID, tp temporal.TimeProperty) (*time.Time, error)
	DeleteInstance(ctx context.Context, entityID, attributeName, instanceID string) error
	DeleteAllForAttribute(ctx context.Context, entityID, attributeName, datasetID string) error
	DeleteAllForEntity(ctx context.Context, entityID string) error
}

type AttributeRepository interface {
	GetAttributesForEntity(ctx context.Context, entityID string, names, datasetIDs []string) ([]temporal.Attribute, error)
	GetAttributesForEntities(ctx context.Context, entityIDs, names []string) ([]temporal.Attribute, error)
	UpsertAttribute(ctx context.Context, attr temporal.Attribute) (temporal.Attribute, error)
	SoftDeleteAttribute(ctx context.Context, entityID, attributeName, datasetID string, deletedAt time.Time) error
}

type EntityRepository interface {
	RetrieveEntity(ctx context.Context, entityID string) (temporal.EntityPayload, error)
	UpsertEntity(ctx context.Context, entity temporal.EntityPayload) error
}

type ScopeHistoryRepository interface {
	RetrieveScopeHistory(ctx context.Context, entityIDs []string, q temporal.Query) ([]temporal.ScopeInstance, error)
	AppendScope(ctx context.Context, scope temporal.ScopeInstance) error
}

// Purger removes the history of attributes that were soft deleted
type Purger interface {
	ListSoftDeletedAttributes(ctx context.Context, deletedBefore time.Time) ([]temporal.Attribute, error)
	PurgeAttribute(ctx context.Context, attributeUUID uuid.UUID) (int64, error)
}

type Store interface {
	InstanceStore
	AttributeRepository
	EntityRepository
	ScopeHistoryRepository
	Purger

	Close()
}

func contains(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
