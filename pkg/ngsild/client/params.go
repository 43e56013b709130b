package client

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

type RequestDecoratorFunc func(url.Values) url.Values

func Aggregation(aggrMethods []temporal.AggregationMethod, decorators ...temporal.AggregationDurationDecoratorFunc) RequestDecoratorFunc {

	methods := make([]string, len(aggrMethods))
	for idx, m := range aggrMethods {
		methods[idx] = string(m)
	}

	duration := "P"
	for _, decorate := range decorators {
		duration = decorate(duration)
	}

	return func(params url.Values) url.Values {
		params = addOption(params, "aggregatedValues")
		params.Set("aggrMethods", strings.Join(methods, ","))
		if duration != "P" {
			params.Set("aggrPeriodDuration", duration)
		}
		return params
	}
}

// options are sent as one comma separated list
func addOption(params url.Values, option string) url.Values {
	if current := params.Get("options"); current != "" {
		option = current + "," + option
	}
	params.Set("options", option)
	return params
}

func TemporalValues() RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params = addOption(params, "temporalValues")
		return params
	}
}

func SysAttrs() RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params = addOption(params, "sysAttrs")
		return params
	}
}

func Attributes(attrs []string) RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params.Set("attrs", strings.Join(attrs, ","))
		return params
	}
}

func DatasetIDs(datasetIDs []string) RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params.Set("datasetId", strings.Join(datasetIDs, ","))
		return params
	}
}

func After(timeAt time.Time) RequestDecoratorFunc {
	return timerel(temporal.TimeRelAfter, timeAt)
}

func Before(timeAt time.Time) RequestDecoratorFunc {
	return timerel(temporal.TimeRelBefore, timeAt)
}

func Between(timeAt, endTimeAt time.Time) RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params = timerel(temporal.TimeRelBetween, timeAt)(params)
		params.Set("endTimeAt", endTimeAt.UTC().Format(time.RFC3339Nano))
		return params
	}
}

func timerel(rel temporal.TimeRel, timeAt time.Time) RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params.Set("timerel", string(rel))
		params.Set("timeAt", timeAt.UTC().Format(time.RFC3339Nano))
		return params
	}
}

func TimeProperty(tp temporal.TimeProperty) RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params.Set("timeproperty", string(tp))
		return params
	}
}

func IDs(ids []string) RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params.Set("id", strings.Join(ids, ","))
		return params
	}
}

func LastN(count uint64) RequestDecoratorFunc {
	return func(params url.Values) url.Values {
		params.Set("lastN", fmt.Sprintf("%d", count))
		return params
	}
}
