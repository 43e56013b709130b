package entities

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestMarshalTemporalEntity(t *testing.T) {
	is := is.New(t)

	e := NewTemporal("urn:ngsi-ld:WeatherObserved:observationid", []string{"WeatherObserved"},
		Attr("temperature", map[string]any{"type": "Property", "values": [][]any{{17.2, "2024-01-01T10:00:00Z"}}}),
	)

	b, err := json.Marshal(e)
	is.NoErr(err)
	is.Equal(string(b), `{"@context":["https://raw.githubusercontent.com/diwise/context-broker/main/assets/jsonldcontexts/default-context.jsonld"],"id":"urn:ngsi-ld:WeatherObserved:observationid","temperature":{"type":"Property","values":[[17.2,"2024-01-01T10:00:00Z"]]},"type":"WeatherObserved"}`)
}

func TestMarshalWithSeveralTypesAndNoContext(t *testing.T) {
	is := is.New(t)

	e := NewTemporal("urn:ngsi-ld:Beach:1", []string{"Beach", "Facility"}, NoContext())

	b, err := json.Marshal(e)
	is.NoErr(err)
	is.Equal(string(b), `{"id":"urn:ngsi-ld:Beach:1","type":["Beach","Facility"]}`)
}

func TestUnmarshalTemporalEntity(t *testing.T) {
	is := is.New(t)

	e, err := NewTemporalFromJSON([]byte(temporalJSON))
	is.NoErr(err)
	is.Equal(e.ID(), "urn:ngsi-ld:Beach:se:sundsvall:facilities:284")
	is.Equal(e.Type(), "Beach")

	names := []string{}
	e.ForEachAttribute(func(name string, contents any) {
		names = append(names, name)
	})
	is.Equal(names, []string{"name", "temperature"}) // attributes should be visited in name order
}

var temporalJSON string = `{
	"id": "urn:ngsi-ld:Beach:se:sundsvall:facilities:284",
	"type": "Beach",
	"@context": "https://uri.etsi.org/ngsi-ld/v1/ngsi-ld-core-context.jsonld",
	"temperature": {
		"type": "Property",
		"values": [[21.2, "2022-07-01T10:00:00Z"], [22.0, "2022-07-01T11:00:00Z"]]
	},
	"name": [{
		"type": "Property",
		"value": "Hartungviken",
		"instanceId": "urn:ngsi-ld:Instance:1",
		"observedAt": "2022-07-01T10:00:00Z"
	}]
}`
