package aggregation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

var numeric = map[temporal.ValueType]bool{
	temporal.NumberValue:  true,
	temporal.BooleanValue: true,
	temporal.ArrayValue:   true,
}

var ordered = map[temporal.ValueType]bool{
	temporal.NumberValue:   true,
	temporal.BooleanValue:  true,
	temporal.ArrayValue:    true,
	temporal.StringValue:   true,
	temporal.DateTimeValue: true,
	temporal.DateValue:     true,
	temporal.TimeValue:     true,
}

// IsSupported reports if an aggregation method can be applied to values of
// the given type
func IsSupported(method temporal.AggregationMethod, vt temporal.ValueType) bool {
	switch method {
	case temporal.AggregatedTotalCount, temporal.AggregatedDistinctCount:
		return true
	case temporal.AggregatedSum, temporal.AggregatedSumOfSquares, temporal.AggregatedStdDev:
		return numeric[vt]
	case temporal.AggregatedAverage:
		return numeric[vt] || vt == temporal.DateTimeValue || vt == temporal.TimeValue
	case temporal.AggregatedMin, temporal.AggregatedMax:
		return ordered[vt]
	default:
		return false
	}
}

// CheckSupported returns an OperationNotSupported error naming the first
// method that can not be applied to the attribute
func CheckSupported(methods []temporal.AggregationMethod, attr temporal.Attribute) error {
	for _, m := range methods {
		if !IsSupported(m, attr.ValueType) {
			return ngsierrors.NewOperationNotSupportedError(
				fmt.Sprintf("aggregation method %s is not supported by attribute %s with values of type %s", m, attr.Name, attr.ValueType),
			)
		}
	}
	return nil
}

// Aggregate computes one aggregation method over the instances of a bucket
func Aggregate(method temporal.AggregationMethod, vt temporal.ValueType, instances []temporal.AttributeInstance) (any, error) {
	if !IsSupported(method, vt) {
		return nil, ngsierrors.NewOperationNotSupportedError(fmt.Sprintf("aggregation method %s is not supported for values of type %s", method, vt))
	}

	switch method {
	case temporal.AggregatedTotalCount:
		return len(instances), nil
	case temporal.AggregatedDistinctCount:
		return distinctCount(instances), nil
	case temporal.AggregatedMin, temporal.AggregatedMax:
		return extreme(method == temporal.AggregatedMax, vt, instances)
	}

	if method == temporal.AggregatedAverage {
		switch vt {
		case temporal.DateTimeValue:
			return averageDateTime(instances)
		case temporal.TimeValue:
			return averageTimeOfDay(instances)
		}
	}

	values, err := numbers(vt, instances)
	if err != nil {
		return nil, err
	}

	switch method {
	case temporal.AggregatedSum:
		return sum(values), nil
	case temporal.AggregatedSumOfSquares:
		return sumOfSquares(values), nil
	case temporal.AggregatedAverage:
		if len(values) == 0 {
			return nil, nil
		}
		return sum(values) / float64(len(values)), nil
	default:
		return stddev(values), nil
	}
}

func key(i temporal.AttributeInstance) string {
	switch {
	case i.Measure != nil:
		return strconv.FormatFloat(*i.Measure, 'g', -1, 64)
	case i.Value != nil:
		return *i.Value
	default:
		return string(i.Geometry)
	}
}

func distinctCount(instances []temporal.AttributeInstance) int {
	seen := map[string]struct{}{}
	for _, i := range instances {
		seen[key(i)] = struct{}{}
	}
	return len(seen)
}

func mismatch(i temporal.AttributeInstance, vt temporal.ValueType) error {
	return ngsierrors.NewOperationNotSupportedError(fmt.Sprintf("instance %s does not hold a value of type %s", i.InstanceID, vt))
}

// numbers extracts the numeric values of instances. Array elements are
// flattened and must all be numbers.
func numbers(vt temporal.ValueType, instances []temporal.AttributeInstance) ([]float64, error) {
	values := make([]float64, 0, len(instances))

	for _, i := range instances {
		if vt != temporal.ArrayValue {
			if i.Measure == nil {
				return nil, mismatch(i, vt)
			}
			values = append(values, *i.Measure)
			continue
		}

		if i.Value == nil {
			return nil, mismatch(i, vt)
		}

		var elements []any
		if err := json.Unmarshal([]byte(*i.Value), &elements); err != nil {
			return nil, mismatch(i, vt)
		}

		for _, e := range elements {
			f, ok := e.(float64)
			if !ok {
				return nil, ngsierrors.NewOperationNotSupportedError(fmt.Sprintf("instance %s holds an array with non numeric elements", i.InstanceID))
			}
			values = append(values, f)
		}
	}

	return values, nil
}

func sum(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}
	return s
}

func sumOfSquares(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v * v
	}
	return s
}

// stddev is the sample standard deviation
func stddev(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	mean := sum(values) / n
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	return math.Sqrt(variance / (n - 1))
}

func extreme(isMax bool, vt temporal.ValueType, instances []temporal.AttributeInstance) (any, error) {
	if len(instances) == 0 {
		return nil, nil
	}

	better := func(c int) bool {
		if isMax {
			return c > 0
		}
		return c < 0
	}

	switch vt {
	case temporal.NumberValue, temporal.ArrayValue:
		values, err := numbers(vt, instances)
		if err != nil || len(values) == 0 {
			return nil, err
		}
		best := values[0]
		for _, v := range values[1:] {
			if better(compareFloats(v, best)) {
				best = v
			}
		}
		return best, nil
	case temporal.BooleanValue:
		values, err := numbers(vt, instances)
		if err != nil {
			return nil, err
		}
		best := values[0]
		for _, v := range values[1:] {
			if better(compareFloats(v, best)) {
				best = v
			}
		}
		return best != 0, nil
	case temporal.DateTimeValue:
		times, err := dateTimes(instances)
		if err != nil {
			return nil, err
		}
		best := times[0]
		for _, t := range times[1:] {
			if better(t.Compare(best)) {
				best = t
			}
		}
		return best.UTC().Format(time.RFC3339Nano), nil
	default:
		best := ""
		for idx, i := range instances {
			if i.Value == nil {
				return nil, mismatch(i, vt)
			}
			if idx == 0 || better(strings.Compare(*i.Value, best)) {
				best = *i.Value
			}
		}
		return best, nil
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func dateTimes(instances []temporal.AttributeInstance) ([]time.Time, error) {
	times := make([]time.Time, 0, len(instances))

	for _, i := range instances {
		if i.Value == nil {
			return nil, mismatch(i, temporal.DateTimeValue)
		}
		t, err := time.Parse(time.RFC3339Nano, *i.Value)
		if err != nil {
			return nil, mismatch(i, temporal.DateTimeValue)
		}
		times = append(times, t)
	}

	return times, nil
}

func averageDateTime(instances []temporal.AttributeInstance) (any, error) {
	times, err := dateTimes(instances)
	if err != nil || len(times) == 0 {
		return nil, err
	}

	offset := 0.0
	for _, t := range times {
		offset += t.Sub(times[0]).Seconds()
	}

	avg := times[0].Add(time.Duration(offset / float64(len(times)) * float64(time.Second)))

	return avg.UTC().Format(time.RFC3339Nano), nil
}

var timeLayouts = []string{"15:04:05.999999999Z07:00", "15:04:05.999999999", "15:04"}

func averageTimeOfDay(instances []temporal.AttributeInstance) (any, error) {
	if len(instances) == 0 {
		return nil, nil
	}

	total := 0.0

	for _, i := range instances {
		if i.Value == nil {
			return nil, mismatch(i, temporal.TimeValue)
		}

		var t time.Time
		var err error
		for _, layout := range timeLayouts {
			if t, err = time.Parse(layout, *i.Value); err == nil {
				break
			}
		}
		if err != nil {
			return nil, mismatch(i, temporal.TimeValue)
		}

		total += float64(t.Hour()*3600+t.Minute()*60+t.Second()) + float64(t.Nanosecond())/1e9
	}

	seconds := total / float64(len(instances))
	midnight := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)

	return midnight.Add(time.Duration(seconds * float64(time.Second))).Format("15:04:05"), nil
}
