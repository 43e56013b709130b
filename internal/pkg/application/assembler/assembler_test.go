package assembler

import (
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

var t0 = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

var entity = temporal.EntityPayload{
	ID:        "urn:ngsi-ld:WeatherObserved:1",
	Types:     []string{"https://uri.fiware.org/ns/data-models#WeatherObserved"},
	CreatedAt: t0,
}

func TestRequestedAttributeWithoutHistoryIsPresent(t *testing.T) {
	is := is.New(t)
	q, _ := temporal.NewQuery()

	e, err := BuildTemporalEntity(entity, nil, []temporal.AttributeResults{
		{Attribute: attribute("temperature", "")},
		{Attribute: attribute("humidity", "")},
	}, q, Options{Representation: temporal.TemporalValues, RequestedAttrs: []string{"temperature"}})
	is.NoErr(err)

	temperature, ok := e.Attribute("temperature")
	is.True(ok) // requested attribute should be present

	values := temperature.(map[string]any)["values"].([][]any)
	is.Equal(len(values), 0)

	_, ok = e.Attribute("humidity")
	is.True(!ok) // unrequested empty attribute should be absent
}

func TestFullRepresentation(t *testing.T) {
	is := is.New(t)
	q, _ := temporal.NewQuery()

	attr := attribute("temperature", "")
	results := temporal.AttributeResults{Attribute: attr}
	for idx := range 3 {
		results.Instances = append(results.Instances, temporal.FullInstanceResult{
			AttrUUID:     attr.UUID,
			InstanceID:   temporal.NewInstanceID(),
			Time:         t0.Add(time.Duration(idx) * time.Minute),
			TimeProperty: temporal.ObservedAt,
			Payload:      json.RawMessage(`{"type":"Property","value":12.5,"unitCode":"CEL"}`),
		})
	}

	e, err := BuildTemporalEntity(entity, nil, []temporal.AttributeResults{results}, q, Options{})
	is.NoErr(err)

	b, err := json.Marshal(e)
	is.NoErr(err)

	var rendered struct {
		ID          string           `json:"id"`
		Type        string           `json:"type"`
		Temperature []map[string]any `json:"temperature"`
	}
	is.NoErr(json.Unmarshal(b, &rendered))
	is.Equal(rendered.Type, entity.Types[0])
	is.Equal(len(rendered.Temperature), 3)
	is.Equal(rendered.Temperature[0]["unitCode"], "CEL")
	is.Equal(rendered.Temperature[0]["observedAt"], "2024-02-01T09:00:00Z")
}

func TestDatasetsAreMergedUnderOneName(t *testing.T) {
	is := is.New(t)
	q, _ := temporal.NewQuery()

	raw := attribute("temperature", "urn:ngsi-ld:Dataset:raw")
	def := attribute("temperature", "")

	e, err := BuildTemporalEntity(entity, nil, []temporal.AttributeResults{
		{Attribute: raw, Instances: []temporal.InstanceResult{temporal.SimplifiedInstanceResult{AttrUUID: raw.UUID, Time: t0, Value: 1.0}}},
		{Attribute: def, Instances: []temporal.InstanceResult{temporal.SimplifiedInstanceResult{AttrUUID: def.UUID, Time: t0, Value: 2.0}}},
	}, q, Options{Representation: temporal.TemporalValues})
	is.NoErr(err)

	temperature, ok := e.Attribute("temperature")
	is.True(ok)

	variants := temperature.([]any)
	is.Equal(len(variants), 2)

	_, hasDataset := variants[0].(map[string]any)["datasetId"]
	is.True(!hasDataset) // the default dataset should come first
	is.Equal(variants[1].(map[string]any)["datasetId"], "urn:ngsi-ld:Dataset:raw")
}

func TestRelationshipsUseObjects(t *testing.T) {
	is := is.New(t)
	q, _ := temporal.NewQuery()

	attr := attribute("refDevice", "")
	attr.Type = temporal.Relationship

	e, err := BuildTemporalEntity(entity, nil, []temporal.AttributeResults{{
		Attribute: attr,
		Instances: []temporal.InstanceResult{temporal.SimplifiedInstanceResult{AttrUUID: attr.UUID, Time: t0, Value: "urn:ngsi-ld:Device:1"}},
	}}, q, Options{Representation: temporal.TemporalValues})
	is.NoErr(err)

	refDevice, _ := e.Attribute("refDevice")
	objects := refDevice.(map[string]any)["objects"].([][]any)
	is.Equal(objects[0][0], "urn:ngsi-ld:Device:1")
}

func TestAggregatedValuesSkipFailures(t *testing.T) {
	is := is.New(t)
	q, _ := temporal.NewQuery(temporal.AggregationWithPeriod(
		[]temporal.AggregationMethod{temporal.AggregatedSum, temporal.AggregatedTotalCount}, "PT1H",
	))

	attr := attribute("temperature", "")
	bucket := temporal.AggregatedInstanceResult{
		AttrUUID: attr.UUID,
		Start:    t0,
		End:      t0.Add(time.Hour),
		Values: []temporal.AggregateValue{
			{Method: temporal.AggregatedSum, Failure: errMixed},
			{Method: temporal.AggregatedTotalCount, Value: 4},
		},
	}

	scopes := []temporal.ScopeInstance{
		{EntityID: entity.ID, TimeProperty: temporal.ObservedAt, Time: t0.Add(time.Minute), Scopes: []string{"/Sundsvall"}},
		{EntityID: entity.ID, TimeProperty: temporal.ObservedAt, Time: t0.Add(2 * time.Minute), Scopes: []string{"/Sundsvall"}},
	}

	e, err := BuildTemporalEntity(entity, scopes, []temporal.AttributeResults{{Attribute: attr, Instances: []temporal.InstanceResult{bucket}}}, q,
		Options{Representation: temporal.AggregatedValues})
	is.NoErr(err)

	temperature, _ := e.Attribute("temperature")
	obj := temperature.(map[string]any)
	is.Equal(len(obj["sum"].([][]any)), 0)
	is.Equal(obj["totalCount"].([][]any)[0][0], 4)

	scope, ok := e.Attribute("scope")
	is.True(ok)
	counts := scope.(map[string]any)["totalCount"].([][]any)
	is.Equal(counts[0][0], 2)

	_, hasSum := scope.(map[string]any)["sum"]
	is.True(!hasSum) // scopes can only be counted
}

func TestCompactAndSysAttrs(t *testing.T) {
	is := is.New(t)
	q, _ := temporal.NewQuery()

	e, err := BuildTemporalEntity(entity, nil, nil, q, Options{
		SysAttrs: true,
		Compact: func(term string) string {
			if term == entity.Types[0] {
				return "WeatherObserved"
			}
			return term
		},
	})
	is.NoErr(err)

	is.Equal(e.Type(), "WeatherObserved")

	createdAt, ok := e.Attribute("createdAt")
	is.True(ok)
	is.Equal(createdAt, "2024-02-01T09:00:00Z")
}

func TestCorruptPayloadIsAnError(t *testing.T) {
	is := is.New(t)
	q, _ := temporal.NewQuery()

	attr := attribute("temperature", "")
	results := temporal.AttributeResults{Attribute: attr, Instances: []temporal.InstanceResult{
		temporal.FullInstanceResult{
			AttrUUID:     attr.UUID,
			InstanceID:   "urn:ngsi-ld:Instance:broken",
			Time:         t0,
			TimeProperty: temporal.ObservedAt,
			Payload:      json.RawMessage(`{"type":"Property","value":`),
		},
	}}

	e, err := BuildTemporalEntity(entity, nil, []temporal.AttributeResults{results}, q, Options{})
	is.True(e == nil)
	is.True(errors.Is(err, ngsierrors.ErrStorageFailure))
	is.True(strings.Contains(err.Error(), "urn:ngsi-ld:Instance:broken")) // the instance should be named
}

var errMixed = errors.New("mixed value types")

func attribute(name, datasetID string) temporal.Attribute {
	return temporal.Attribute{
		UUID:      uuid.New(),
		EntityID:  entity.ID,
		Name:      name,
		DatasetID: datasetID,
		Type:      temporal.Property,
		ValueType: temporal.NumberValue,
		CreatedAt: t0,
	}
}
