package database

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRangeSelectAfterIsExclusive(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 10)

	instances, err := store.RangeSelect(ctx, RangeSelection{
		AttributeUUID: attr.UUID,
		TimeProperty:  temporal.ObservedAt,
		TimeRel:       temporal.TimeRelAfter,
		TimeAt:        t0.Add(2 * time.Minute),
	})
	is.NoErr(err)
	is.Equal(len(instances), 7) // minutes 3 to 9 should be selected

	is.True(instances[0].Time.Equal(t0.Add(3 * time.Minute))) // oldest first
	is.True(instances[6].Time.Equal(t0.Add(9 * time.Minute)))
}

func TestRangeSelectBetweenDescendingWithLimit(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 10)

	instances, err := store.RangeSelect(ctx, RangeSelection{
		AttributeUUID: attr.UUID,
		TimeProperty:  temporal.ObservedAt,
		TimeRel:       temporal.TimeRelBetween,
		TimeAt:        t0.Add(1 * time.Minute),
		EndTimeAt:     t0.Add(8 * time.Minute),
		Descending:    true,
		Limit:         3,
	})
	is.NoErr(err)
	is.Equal(len(instances), 3)
	is.True(instances[0].Time.Equal(t0.Add(7 * time.Minute))) // end of range is excluded
	is.True(instances[2].Time.Equal(t0.Add(5 * time.Minute)))
}

func TestRangeSelectBefore(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 10)

	instances, err := store.RangeSelect(ctx, RangeSelection{
		AttributeUUID: attr.UUID,
		TimeProperty:  temporal.ObservedAt,
		TimeRel:       temporal.TimeRelBefore,
		TimeAt:        t0.Add(2 * time.Minute),
	})
	is.NoErr(err)
	is.Equal(len(instances), 2) // minutes 0 and 1 should be selected
}

func TestRangeSelectIgnoresOtherTimeProperties(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 3)

	instances, err := store.RangeSelect(ctx, RangeSelection{AttributeUUID: attr.UUID, TimeProperty: temporal.ModifiedAt})
	is.NoErr(err)
	is.Equal(len(instances), 0)
}

func TestAppendSameTimeOverwritesInPlace(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 1)

	i, err := attr.NewInstance(temporal.ObservedAt, t0, 42.0, json.RawMessage(`{"value":42}`))
	is.NoErr(err)
	is.NoErr(store.Append(ctx, i))

	instances, err := store.RangeSelect(ctx, RangeSelection{AttributeUUID: attr.UUID, TimeProperty: temporal.ObservedAt})
	is.NoErr(err)
	is.Equal(len(instances), 1) // should not add a second instance at the same time

	is.Equal(*instances[0].Measure, 42.0) // last write should win
}

func TestAppendWithoutPayloadStoresEmptyObject(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 0)

	i, err := attr.NewInstance(temporal.ObservedAt, t0, 7.0, nil)
	is.NoErr(err)
	is.NoErr(store.Append(ctx, i))

	instances, err := store.RangeSelect(ctx, RangeSelection{AttributeUUID: attr.UUID, TimeProperty: temporal.ObservedAt})
	is.NoErr(err)
	is.Equal(len(instances), 1)
	is.Equal(string(instances[0].Payload), "{}") // a missing payload is stored as an empty object
}

func TestAppendToUnknownAttributeIsAConflict(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 0)

	other := attr
	other.UUID[0] ^= 0xff

	i, _ := other.NewInstance(temporal.ObservedAt, t0, 1.0, json.RawMessage(`{}`))
	err := store.Append(ctx, i)
	is.True(errors.Is(err, ngsierrors.ErrStorageConflict))
}

func TestAppendInvalidGeometry(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	attr, err := store.UpsertAttribute(ctx, temporal.Attribute{
		EntityID: "urn:ngsi-ld:Vehicle:1", Name: "location", Type: temporal.GeoProperty, ValueType: temporal.GeometryValue,
	})
	is.NoErr(err)

	i, err := attr.NewInstance(temporal.ObservedAt, t0, json.RawMessage(`{"type":"Point","coordinates":[17.3]}`), json.RawMessage(`{}`))
	is.NoErr(err)

	err = store.Append(ctx, i)
	is.True(errors.Is(err, ngsierrors.ErrBadRequest)) // a point needs two coordinates
}

func TestSelectOldestTime(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 5)

	oldest, err := store.SelectOldestTime(ctx, []uuid.UUID{attr.UUID}, temporal.ObservedAt)
	is.NoErr(err)
	is.True(oldest != nil)
	is.True(oldest.Equal(t0))

	none, err := store.SelectOldestTime(ctx, []uuid.UUID{attr.UUID}, temporal.CreatedAt)
	is.NoErr(err)
	is.Equal(none, nil) // no instances on that time axis
}

func TestUpsertAttributeIsIdempotent(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 0)

	again, err := store.UpsertAttribute(ctx, temporal.Attribute{
		EntityID: attr.EntityID, Name: attr.Name, Type: temporal.Property, ValueType: temporal.NumberValue,
	})
	is.NoErr(err)
	is.Equal(again.UUID, attr.UUID) // the same triple should keep its identity

	attrs, err := store.GetAttributesForEntity(ctx, attr.EntityID, nil, nil)
	is.NoErr(err)
	is.Equal(len(attrs), 1)
}

func TestGetAttributesFiltersOnNameAndDataset(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 0)

	_, err := store.UpsertAttribute(ctx, temporal.Attribute{
		EntityID: attr.EntityID, Name: attr.Name, DatasetID: "urn:ngsi-ld:Dataset:raw", Type: temporal.Property, ValueType: temporal.NumberValue,
	})
	is.NoErr(err)
	_, err = store.UpsertAttribute(ctx, temporal.Attribute{
		EntityID: attr.EntityID, Name: "humidity", Type: temporal.Property, ValueType: temporal.NumberValue,
	})
	is.NoErr(err)

	attrs, err := store.GetAttributesForEntity(ctx, attr.EntityID, []string{"temperature"}, nil)
	is.NoErr(err)
	is.Equal(len(attrs), 2)
	is.Equal(attrs[0].DatasetID, "") // default dataset sorts first

	attrs, err = store.GetAttributesForEntity(ctx, attr.EntityID, nil, []string{"urn:ngsi-ld:Dataset:raw"})
	is.NoErr(err)
	is.Equal(len(attrs), 1)
}

func TestDeleteInstance(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 3)

	instances, _ := store.RangeSelect(ctx, RangeSelection{AttributeUUID: attr.UUID, TimeProperty: temporal.ObservedAt})

	err := store.DeleteInstance(ctx, attr.EntityID, attr.Name, instances[1].InstanceID)
	is.NoErr(err)

	err = store.DeleteInstance(ctx, attr.EntityID, attr.Name, instances[1].InstanceID)
	is.True(errors.Is(err, ngsierrors.ErrNotFound))
	is.True(strings.Contains(err.Error(), instances[1].InstanceID))
	is.True(strings.Contains(err.Error(), attr.Name))

	err = store.DeleteInstance(ctx, attr.EntityID, "pressure", instances[0].InstanceID)
	is.True(errors.Is(err, ngsierrors.ErrNotFound))
	is.True(strings.Contains(err.Error(), "pressure"))

	remaining, _ := store.RangeSelect(ctx, RangeSelection{AttributeUUID: attr.UUID, TimeProperty: temporal.ObservedAt})
	is.Equal(len(remaining), 2)
}

func TestDeleteAllForAttributeRemovesHistory(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 3)

	is.NoErr(store.DeleteAllForAttribute(ctx, attr.EntityID, attr.Name, ""))

	remaining, _ := store.RangeSelect(ctx, RangeSelection{AttributeUUID: attr.UUID, TimeProperty: temporal.ObservedAt})
	is.Equal(len(remaining), 0)

	err := store.DeleteAllForAttribute(ctx, attr.EntityID, attr.Name, "")
	is.True(errors.Is(err, ngsierrors.ErrNotFound))
}

func TestDeleteAllForEntity(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 3)

	is.NoErr(store.DeleteAllForEntity(ctx, attr.EntityID))

	attrs, _ := store.GetAttributesForEntity(ctx, attr.EntityID, nil, nil)
	is.Equal(len(attrs), 0)

	_, err := store.RetrieveEntity(ctx, attr.EntityID)
	is.True(errors.Is(err, ngsierrors.ErrNotFound))

	err = store.DeleteAllForEntity(ctx, attr.EntityID)
	is.True(errors.Is(err, ngsierrors.ErrNotFound))
}

func TestPurgeSoftDeletedAttribute(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 4)

	is.NoErr(store.SoftDeleteAttribute(ctx, attr.EntityID, attr.Name, "", t0))

	deleted, err := store.ListSoftDeletedAttributes(ctx, t0.Add(time.Hour))
	is.NoErr(err)
	is.Equal(len(deleted), 1)

	count, err := store.PurgeAttribute(ctx, deleted[0].UUID)
	is.NoErr(err)
	is.Equal(count, int64(4))
}

func TestScopeHistoryWithLastN(t *testing.T) {
	is, ctx, store, attr := setupStoreTest(t, 0)

	for i := range 4 {
		is.NoErr(store.AppendScope(ctx, temporal.ScopeInstance{
			EntityID:     attr.EntityID,
			TimeProperty: temporal.ObservedAt,
			Time:         t0.Add(time.Duration(i) * time.Minute),
			Scopes:       []string{"/Sundsvall"},
		}))
	}

	q, err := temporal.NewQuery(temporal.LastN(2))
	is.NoErr(err)

	scopes, err := store.RetrieveScopeHistory(ctx, []string{attr.EntityID}, q)
	is.NoErr(err)
	is.Equal(len(scopes), 2)
	is.True(scopes[0].Time.Equal(t0.Add(3 * time.Minute))) // newest first
}

func setupStoreTest(t *testing.T, count int) (*is.I, context.Context, Store, temporal.Attribute) {
	is := is.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	is.NoErr(store.UpsertEntity(ctx, temporal.EntityPayload{
		ID: "urn:ngsi-ld:Sensor:01", Types: []string{"Sensor"}, CreatedAt: t0, Payload: json.RawMessage(`{}`),
	}))

	attr, err := store.UpsertAttribute(ctx, temporal.Attribute{
		EntityID: "urn:ngsi-ld:Sensor:01", Name: "temperature", Type: temporal.Property, ValueType: temporal.NumberValue,
	})
	is.NoErr(err)

	for i := range count {
		instance, err := attr.NewInstance(temporal.ObservedAt, t0.Add(time.Duration(i)*time.Minute), float64(i), json.RawMessage(`{}`))
		is.NoErr(err)
		is.NoErr(store.Append(ctx, instance))
	}

	return is, ctx, store, attr
}
