package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WholeRange is the aggregation period that puts every instance of the
// requested range in a single bucket
const WholeRange string = "PT0S"

// Duration is an ISO-8601 duration. The calendar components are kept apart
// from the clock component so that they can be applied in a time zone.
type Duration struct {
	Years  int
	Months int
	Weeks  int
	Days   int
	Clock  time.Duration

	raw string
}

var durationPattern = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

func ParseDuration(s string) (Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}

	atoi := func(v string) int {
		if v == "" {
			return 0
		}
		n, _ := strconv.Atoi(v)
		return n
	}

	d := Duration{
		Years:  atoi(m[1]),
		Months: atoi(m[2]),
		Weeks:  atoi(m[3]),
		Days:   atoi(m[4]),
		raw:    s,
	}

	d.Clock = time.Duration(atoi(m[5]))*time.Hour + time.Duration(atoi(m[6]))*time.Minute

	if m[7] != "" {
		seconds, err := strconv.ParseFloat(strings.Replace(m[7], ",", ".", 1), 64)
		if err != nil {
			return Duration{}, fmt.Errorf("invalid seconds in duration %q: %w", s, err)
		}
		d.Clock += time.Duration(seconds * float64(time.Second))
	}

	return d, nil
}

func MustParseDuration(s string) Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero is true for durations such as PT0S that do not advance time
func (d Duration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Weeks == 0 && d.Days == 0 && d.Clock == 0
}

// AddTo advances t by the duration using calendar arithmetic in the
// location of t
func (d Duration) AddTo(t time.Time) time.Time {
	return t.AddDate(d.Years, d.Months, d.Weeks*7+d.Days).Add(d.Clock)
}

func (d Duration) String() string {
	if d.raw != "" {
		return d.raw
	}
	if d.IsZero() {
		return WholeRange
	}

	var b strings.Builder
	b.WriteString("P")
	for _, c := range []struct {
		n    int
		unit string
	}{{d.Years, "Y"}, {d.Months, "M"}, {d.Weeks, "W"}, {d.Days, "D"}} {
		if c.n > 0 {
			fmt.Fprintf(&b, "%d%s", c.n, c.unit)
		}
	}

	if d.Clock > 0 {
		b.WriteString("T")
		h := d.Clock / time.Hour
		m := (d.Clock % time.Hour) / time.Minute
		s := (d.Clock % time.Minute).Seconds()
		if h > 0 {
			fmt.Fprintf(&b, "%dH", h)
		}
		if m > 0 {
			fmt.Fprintf(&b, "%dM", m)
		}
		if s > 0 {
			b.WriteString(strconv.FormatFloat(s, 'f', -1, 64) + "S")
		}
	}

	return b.String()
}
