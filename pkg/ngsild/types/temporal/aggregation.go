package temporal

import (
	"fmt"
	"strings"
)

type AggregationMethod string

const (
	AggregatedAverage       AggregationMethod = "avg"
	AggregatedDistinctCount AggregationMethod = "distinctCount"
	AggregatedMax           AggregationMethod = "max"
	AggregatedMin           AggregationMethod = "min"
	AggregatedStdDev        AggregationMethod = "stddev"
	AggregatedSum           AggregationMethod = "sum"
	AggregatedSumOfSquares  AggregationMethod = "sumsq"
	AggregatedTotalCount    AggregationMethod = "totalCount"
)

var aggregationMethods = []AggregationMethod{
	AggregatedAverage, AggregatedDistinctCount, AggregatedMax, AggregatedMin,
	AggregatedStdDev, AggregatedSum, AggregatedSumOfSquares, AggregatedTotalCount,
}

func (m AggregationMethod) IsValid() bool {
	for _, known := range aggregationMethods {
		if m == known {
			return true
		}
	}
	return false
}

func ParseAggregationMethods(s string) ([]AggregationMethod, error) {
	methods := []AggregationMethod{}

	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		m := AggregationMethod(name)
		if !m.IsValid() {
			return nil, fmt.Errorf("unknown aggregation method %q", name)
		}
		methods = append(methods, m)
	}

	return methods, nil
}

type AggregationDurationDecoratorFunc func(string) string

func ByDay() AggregationDurationDecoratorFunc {
	return Days(1)
}

func ByHour() AggregationDurationDecoratorFunc {
	return Hours(1)
}

func ByMonth() AggregationDurationDecoratorFunc {
	return Months(1)
}

func ByWeek() AggregationDurationDecoratorFunc {
	return Weeks(1)
}

func Days(numberOfDays uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		return fmt.Sprintf("%s%dD", duration, numberOfDays)
	}
}

func Hours(numberOfHours uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		if !strings.Contains(duration, "T") {
			duration += "T"
		}

		return fmt.Sprintf("%s%dH", duration, numberOfHours)
	}
}

func Minutes(numberOfMinutes uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		if !strings.Contains(duration, "T") {
			duration += "T"
		}

		return fmt.Sprintf("%s%dM", duration, numberOfMinutes)
	}
}

func Months(numberOfMonths uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		return fmt.Sprintf("%s%dM", duration, numberOfMonths)
	}
}

func Weeks(numberOfWeeks uint64) AggregationDurationDecoratorFunc {
	return func(duration string) string {
		return fmt.Sprintf("%s%dW", duration, numberOfWeeks)
	}
}
