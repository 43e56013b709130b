package cim

import (
	"fmt"
	"time"

	"github.com/diwise/troe/pkg/ngsild/types"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

type TemporalEntityResult struct {
	Entity types.EntityTemporal
	// Range is set when the result was cut short by the instance limit
	Range *temporal.Range
	LastN int
}

func NewTemporalEntityResult(entity types.EntityTemporal, r *temporal.Range, lastN int) *TemporalEntityResult {
	return &TemporalEntityResult{Entity: entity, Range: r, LastN: lastN}
}

func (r TemporalEntityResult) IsPartial() bool {
	return r.Range != nil
}

// ContentRange formats the range of a partial result as the value of a
// Content-Range header
func (r TemporalEntityResult) ContentRange() string {
	return contentRange(r.Range, r.LastN)
}

type QueryTemporalEntitiesResult struct {
	Entities []types.EntityTemporal
	Range    *temporal.Range
	LastN    int
}

func (r QueryTemporalEntitiesResult) IsPartial() bool {
	return r.Range != nil
}

func (r QueryTemporalEntitiesResult) ContentRange() string {
	return contentRange(r.Range, r.LastN)
}

func contentRange(r *temporal.Range, lastN int) string {
	if r == nil {
		return ""
	}

	size := "*"
	if lastN > 0 {
		size = fmt.Sprintf("%d", lastN)
	}

	return fmt.Sprintf("date-time %s-%s/%s",
		r.Start.UTC().Format(time.RFC3339Nano),
		r.End.UTC().Format(time.RFC3339Nano),
		size,
	)
}
