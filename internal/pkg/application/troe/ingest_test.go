package troe

import (
	"errors"
	"testing"
	"time"

	"github.com/diwise/troe/internal/pkg/application/cim"
	"github.com/diwise/troe/internal/pkg/infrastructure/database"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

func TestUpsertCreatesHistory(t *testing.T) {
	is, ctx, app, store := setupAppTest(t)

	e, err := entities.NewTemporalFromJSON([]byte(vehicleHistory))
	is.NoErr(err)

	created, err := app.UpsertTemporalEvolutionOfEntity(ctx, "default", e)
	is.NoErr(err)
	is.True(created) // the vehicle did not exist before

	attrs, err := store.GetAttributesForEntity(ctx, "urn:ngsi-ld:Vehicle:B9211", nil, nil)
	is.NoErr(err)
	is.Equal(len(attrs), 3) // speed, speed from the gps dataset and the owner relationship

	for _, a := range attrs {
		switch a.Name {
		case "speed":
			is.Equal(a.ValueType, temporal.NumberValue)
		case "owner":
			is.Equal(a.Type, temporal.Relationship)
			is.Equal(a.ValueType, temporal.URIValue)
		}
	}

	q, _ := temporal.NewQuery(temporal.OnTimeProperty(temporal.ObservedAt))
	result, err := app.RetrieveTemporalEvolutionOfEntity(ctx, "default", "urn:ngsi-ld:Vehicle:B9211", q, cim.TemporalOptions{
		Representation: temporal.TemporalValues,
		Attributes:     []string{"speed"},
		DatasetIDs:     []string{""},
	})
	is.NoErr(err)

	speed, ok := result.Entity.(*entities.TemporalEntityImpl).Attribute("speed")
	is.True(ok)

	values := speed.(map[string]any)["values"].([][]any)
	is.Equal(len(values), 3)
	is.Equal(values[0][0], 120.0)
	is.Equal(values[2][0], 100.0)
}

func TestUpsertExistingEntityAppends(t *testing.T) {
	is, ctx, app, store := setupAppTest(t)

	first, _ := entities.NewTemporalFromJSON([]byte(`{"id":"` + entityID + `","type":"WeatherObserved","temperature":[{"type":"Property","value":12.5,"observedAt":"2024-04-02T08:00:00Z"}]}`))
	second, _ := entities.NewTemporalFromJSON([]byte(`{"id":"` + entityID + `","type":"WeatherObserved","temperature":{"type":"Property","value":13.5,"observedAt":"2024-04-02T09:00:00Z"},"scope":"/sundsvall"}`))

	created, err := app.UpsertTemporalEvolutionOfEntity(ctx, "default", first)
	is.NoErr(err)
	is.True(!created) // the entity is created by the test setup

	_, err = app.UpsertTemporalEvolutionOfEntity(ctx, "default", second)
	is.NoErr(err)

	attrs, _ := store.GetAttributesForEntity(ctx, entityID, []string{"temperature"}, nil)
	is.Equal(len(attrs), 1)

	instances, err := store.RangeSelect(ctx, database.RangeSelection{AttributeUUID: attrs[0].UUID, TimeProperty: temporal.ObservedAt})
	is.NoErr(err)
	is.Equal(len(instances), 2)

	entity, err := store.RetrieveEntity(ctx, entityID)
	is.NoErr(err)
	is.Equal(entity.Scopes, []string{"/sundsvall"})
	is.True(entity.CreatedAt.Equal(t0)) // creation time should be kept
	is.True(entity.ModifiedAt != nil)
}

func TestUpsertWithMismatchingValueIsABadRequest(t *testing.T) {
	is, ctx, app, s := setupAppTest(t)

	record(t, s, "temperature", 0, 1)

	e, _ := entities.NewTemporalFromJSON([]byte(`{"id":"` + entityID + `","type":"WeatherObserved","temperature":[{"type":"Property","value":"warm","observedAt":"2024-04-02T10:00:00Z"}]}`))

	_, err := app.UpsertTemporalEvolutionOfEntity(ctx, "default", e)
	is.True(errors.Is(err, ngsierrors.ErrBadRequest)) // a string can not be recorded for a number
}

func TestUpsertInstanceWithoutValueIsABadRequest(t *testing.T) {
	is, ctx, app, _ := setupAppTest(t)

	e, _ := entities.NewTemporalFromJSON([]byte(`{"id":"` + entityID + `","type":"WeatherObserved","owner":[{"type":"Relationship","value":"urn:ngsi-ld:Person:1"}]}`))

	_, err := app.UpsertTemporalEvolutionOfEntity(ctx, "default", e)
	is.True(errors.Is(err, ngsierrors.ErrBadRequest)) // relationships carry their target in object
}

func TestUpsertWithoutObservedAtUsesCreatedAt(t *testing.T) {
	is, ctx, app, s := setupAppTest(t)

	before := time.Now().UTC().Add(-time.Second)

	e, _ := entities.NewTemporalFromJSON([]byte(`{"id":"` + entityID + `","type":"WeatherObserved","name":{"type":"Property","value":"Stora torget"}}`))
	_, err := app.UpsertTemporalEvolutionOfEntity(ctx, "default", e)
	is.NoErr(err)

	attrs, _ := s.GetAttributesForEntity(ctx, entityID, []string{"name"}, nil)
	is.Equal(len(attrs), 1)
	is.Equal(attrs[0].ValueType, temporal.StringValue)

	instances, err := s.RangeSelect(ctx, database.RangeSelection{
		AttributeUUID: attrs[0].UUID, TimeProperty: temporal.CreatedAt, TimeRel: temporal.TimeRelAfter, TimeAt: before,
	})
	is.NoErr(err)
	is.Equal(len(instances), 1)
}

func TestUpsertUnknownTenant(t *testing.T) {
	is, ctx, app, _ := setupAppTest(t)

	e, _ := entities.NewTemporalFromJSON([]byte(vehicleHistory))
	_, err := app.UpsertTemporalEvolutionOfEntity(ctx, "nosuchtenant", e)
	is.True(errors.Is(err, ngsierrors.ErrUnknownTenant))
}

const vehicleHistory string = `{
	"id": "urn:ngsi-ld:Vehicle:B9211",
	"type": "Vehicle",
	"speed": [
		{"type": "Property", "value": 120, "observedAt": "2018-08-01T12:03:00Z"},
		{"type": "Property", "value": 80, "observedAt": "2018-08-01T12:05:00Z"},
		{"type": "Property", "value": 100, "observedAt": "2018-08-01T12:07:00Z"},
		{"type": "Property", "value": 98, "observedAt": "2018-08-01T12:07:00Z", "datasetId": "urn:ngsi-ld:Dataset:gps"}
	],
	"owner": {"type": "Relationship", "object": "urn:ngsi-ld:Person:1", "observedAt": "2018-08-01T12:00:00Z"}
}`
