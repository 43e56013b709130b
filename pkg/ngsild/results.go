package ngsild

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/troe/pkg/ngsild/types"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

type RetrieveTemporalEntityResult struct {
	Entity types.EntityTemporal
	// Range is set when the broker returned a partial history
	Range *temporal.Range
	// LastN is the requested lastN of a partial result, or -1 if unknown
	LastN int
}

func (r RetrieveTemporalEntityResult) IsPartial() bool {
	return r.Range != nil
}

type QueryTemporalEntitiesResult struct {
	Entities []types.EntityTemporal
	Range    *temporal.Range
	LastN    int
}

func (r QueryTemporalEntitiesResult) IsPartial() bool {
	return r.Range != nil
}

type UpsertTemporalEntityResult struct {
	created  bool
	location string
}

func NewUpsertTemporalEntityResult(created bool, location string) *UpsertTemporalEntityResult {
	return &UpsertTemporalEntityResult{
		created:  created,
		location: location,
	}
}

func (r UpsertTemporalEntityResult) Created() bool {
	return r.created
}

func (r UpsertTemporalEntityResult) Location() string {
	return r.location
}

type DeleteResult struct{}

func NewDeleteResult() *DeleteResult {
	return &DeleteResult{}
}

const contentRangeUnit string = "date-time "

// ParseContentRange reads a header on the form "date-time <start>-<end>/<size>"
// where size is either a number or "*". An unknown size is returned as -1.
func ParseContentRange(header string) (*temporal.Range, int, error) {
	if !strings.HasPrefix(header, contentRangeUnit) {
		return nil, 0, fmt.Errorf("unsupported content range %q", header)
	}

	rangeAndSize := strings.TrimPrefix(header, contentRangeUnit)
	slash := strings.LastIndex(rangeAndSize, "/")
	if slash < 0 {
		return nil, 0, fmt.Errorf("content range %q has no size", header)
	}

	size := -1
	if sz := rangeAndSize[slash+1:]; sz != "*" {
		n, err := strconv.Atoi(sz)
		if err != nil {
			return nil, 0, fmt.Errorf("content range %q has an invalid size: %w", header, err)
		}
		size = n
	}

	// both endpoints contain dashes, so try every split until both sides parse
	interval := rangeAndSize[:slash]
	for idx := strings.Index(interval, "-"); idx >= 0; {
		start, errStart := time.Parse(time.RFC3339Nano, interval[:idx])
		end, errEnd := time.Parse(time.RFC3339Nano, interval[idx+1:])
		if errStart == nil && errEnd == nil {
			return &temporal.Range{Start: start, End: end}, size, nil
		}

		next := strings.Index(interval[idx+1:], "-")
		if next < 0 {
			break
		}
		idx += next + 1
	}

	return nil, 0, fmt.Errorf("content range %q has an invalid interval", header)
}
