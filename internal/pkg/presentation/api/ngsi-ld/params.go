package ngsild

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/troe/internal/pkg/application/cim"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

// parseTemporalQuery turns the query parameters of a temporal request into a
// query and the rendering options that go with it
func parseTemporalQuery(params url.Values, defaultInstanceLimit int) (temporal.Query, cim.TemporalOptions, error) {
	opts := cim.TemporalOptions{
		Representation: temporal.Full,
		Attributes:     splitList(params.Get("attrs")),
		DatasetIDs:     datasetIDs(params.Get("datasetId")),
	}

	options := splitList(params.Get("options"))
	for _, o := range options {
		switch o {
		case "temporalValues":
			opts.Representation = temporal.TemporalValues
		case "aggregatedValues":
			opts.Representation = temporal.AggregatedValues
		case "sysAttrs":
			opts.SysAttrs = true
		default:
			return temporal.Query{}, opts, ngsierrors.NewBadRequestDataError(fmt.Sprintf("unknown option %q", o))
		}
	}

	if slices.Contains(options, "temporalValues") && slices.Contains(options, "aggregatedValues") {
		return temporal.Query{}, opts, ngsierrors.NewBadRequestDataError("temporalValues and aggregatedValues can not be combined")
	}

	timerel, err := temporal.ParseTimeRel(params.Get("timerel"))
	if err != nil {
		return temporal.Query{}, opts, err
	}

	timeAt, err := parseTime(params, "timeAt")
	if err != nil {
		return temporal.Query{}, opts, err
	}

	endTimeAt, err := parseTime(params, "endTimeAt")
	if err != nil {
		return temporal.Query{}, opts, err
	}

	tp, err := temporal.ParseTimeProperty(params.Get("timeproperty"))
	if err != nil {
		return temporal.Query{}, opts, ngsierrors.NewBadRequestDataError(err.Error())
	}

	decorators := []temporal.QueryDecoratorFunc{
		temporal.WithTimeRel(timerel, timeAt, endTimeAt),
		temporal.OnTimeProperty(tp),
		temporal.InstanceLimit(defaultInstanceLimit),
	}

	if lastN := params.Get("lastN"); lastN != "" {
		n, err := strconv.Atoi(lastN)
		if err != nil || n <= 0 {
			return temporal.Query{}, opts, ngsierrors.NewBadRequestDataError(fmt.Sprintf("lastN must be a positive integer (got %q)", lastN))
		}
		decorators = append(decorators, temporal.LastN(n))
	}

	if aggrMethods := params.Get("aggrMethods"); aggrMethods != "" {
		methods, err := temporal.ParseAggregationMethods(aggrMethods)
		if err != nil {
			return temporal.Query{}, opts, ngsierrors.NewBadRequestDataError(err.Error())
		}

		decorators = append(decorators, temporal.AggregationWithPeriod(methods, params.Get("aggrPeriodDuration")))
		opts.Representation = temporal.AggregatedValues
	} else if opts.Representation == temporal.AggregatedValues {
		return temporal.Query{}, opts, ngsierrors.NewBadRequestDataError("aggregatedValues requires aggrMethods")
	}

	q, err := temporal.NewQuery(decorators...)
	if err != nil {
		return temporal.Query{}, opts, err
	}

	return q, opts, nil
}

func parseTime(params url.Values, name string) (time.Time, error) {
	value := params.Get(name)
	if value == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, ngsierrors.NewBadRequestDataError(fmt.Sprintf("%s is not a valid date-time: %q", name, value))
	}

	return t, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}

	list := []string{}
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}

	return list
}

// noDatasetID selects the default instances of an attribute
const noDatasetID string = "@none"

func datasetIDs(value string) []string {
	ids := splitList(value)
	for i := range ids {
		if ids[i] == noDatasetID {
			ids[i] = ""
		}
	}
	return ids
}
