package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/diwise/troe/internal/pkg/infrastructure/database"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/matryer/is"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPurgeRemovesAttributesDeletedBeforeTheCutoff(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	store := database.NewMemoryStore()

	speed := newAttribute(is, ctx, store, "speed", 3)
	heading := newAttribute(is, ctx, store, "heading", 2)

	is.NoErr(store.SoftDeleteAttribute(ctx, speed.EntityID, speed.Name, "", t0))
	is.NoErr(store.SoftDeleteAttribute(ctx, heading.EntityID, heading.Name, "", t0.Add(48*time.Hour)))

	count, err := purge(ctx, store, t0.Add(24*time.Hour))
	is.NoErr(err)
	is.Equal(count, int64(3)) // only the instances of speed should be purged

	remaining, err := store.ListSoftDeletedAttributes(ctx, t0.Add(72*time.Hour))
	is.NoErr(err)
	is.Equal(len(remaining), 1)
	is.Equal(remaining[0].Name, "heading")
}

func TestPurgeWithNothingToDo(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	store := database.NewMemoryStore()

	newAttribute(is, ctx, store, "speed", 3)

	count, err := purge(ctx, store, t0.Add(24*time.Hour))
	is.NoErr(err)
	is.Equal(count, int64(0))
}

func newAttribute(is *is.I, ctx context.Context, store database.Store, name string, count int) temporal.Attribute {
	is.NoErr(store.UpsertEntity(ctx, temporal.EntityPayload{
		ID: "urn:ngsi-ld:Vehicle:B9211", Types: []string{"Vehicle"}, CreatedAt: t0, Payload: json.RawMessage(`{}`),
	}))

	attr, err := store.UpsertAttribute(ctx, temporal.Attribute{
		EntityID: "urn:ngsi-ld:Vehicle:B9211", Name: name, Type: temporal.Property, ValueType: temporal.NumberValue,
	})
	is.NoErr(err)

	for i := range count {
		instance, err := attr.NewInstance(temporal.ObservedAt, t0.Add(time.Duration(i)*time.Minute), float64(i), json.RawMessage(`{}`))
		is.NoErr(err)
		is.NoErr(store.Append(ctx, instance))
	}

	return attr
}
