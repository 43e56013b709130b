package cim

import (
	"testing"
	"time"

	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/matryer/is"
)

func TestContentRange(t *testing.T) {
	is := is.New(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := entities.NewTemporal("urn:ngsi-ld:Consumer:Consumer01", []string{"WaterConsumptionObserved"})

	result := NewTemporalEntityResult(e, &temporal.Range{Start: start, End: start.Add(time.Hour)}, 0)

	is.True(result.IsPartial())
	is.Equal(result.ContentRange(), "date-time 2024-01-01T00:00:00Z-2024-01-01T01:00:00Z/*")

	result.LastN = 50
	is.Equal(result.ContentRange(), "date-time 2024-01-01T00:00:00Z-2024-01-01T01:00:00Z/50")
}

func TestCompleteResultHasNoContentRange(t *testing.T) {
	is := is.New(t)

	result := NewTemporalEntityResult(entities.NewTemporal("urn:ngsi-ld:Consumer:Consumer01", []string{"WaterConsumptionObserved"}), nil, 0)

	is.True(!result.IsPartial())
	is.Equal(result.ContentRange(), "")
}
