package assembler

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/diwise/troe/internal/pkg/application/aggregation"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

const scopeAttribute = "scope"

type Options struct {
	Representation temporal.Representation
	// RequestedAttrs are the attribute names the client asked for. They are
	// rendered even when they have no history in the requested range.
	RequestedAttrs []string
	SysAttrs       bool
	// Compact maps expanded attribute names and types to their compacted form
	Compact    func(string) string
	Decorators []entities.EntityDecoratorFunc
}

func (o Options) compact(term string) string {
	if o.Compact == nil {
		return term
	}
	return o.Compact(term)
}

// BuildTemporalEntity renders the history of the attributes of one entity. A
// stored instance payload that can not be decoded fails the whole entity.
func BuildTemporalEntity(entity temporal.EntityPayload, scopes []temporal.ScopeInstance, results []temporal.AttributeResults, q temporal.Query, opts Options) (*entities.TemporalEntityImpl, error) {
	entityTypes := make([]string, 0, len(entity.Types))
	for _, t := range entity.Types {
		entityTypes = append(entityTypes, opts.compact(t))
	}

	e := entities.NewTemporal(entity.ID, entityTypes, opts.Decorators...)

	if opts.SysAttrs {
		e.Set("createdAt", formatTime(entity.CreatedAt))
		if entity.ModifiedAt != nil {
			e.Set("modifiedAt", formatTime(*entity.ModifiedAt))
		}
	}

	results = slices.Clone(results)
	slices.SortStableFunc(results, func(a, b temporal.AttributeResults) int {
		return cmp.Or(
			cmp.Compare(a.Attribute.Name, b.Attribute.Name),
			cmp.Compare(a.Attribute.DatasetID, b.Attribute.DatasetID),
			earliest(a).Compare(earliest(b)),
		)
	})

	rendered := map[string][]any{}
	names := []string{}

	for _, ar := range results {
		name := ar.Attribute.Name

		if len(ar.Instances) == 0 && !slices.Contains(opts.RequestedAttrs, name) {
			continue
		}

		if _, ok := rendered[name]; !ok {
			names = append(names, name)
			rendered[name] = []any{}
		}

		switch opts.Representation {
		case temporal.AggregatedValues:
			rendered[name] = append(rendered[name], aggregatedAttribute(ar, q, opts))
		case temporal.TemporalValues:
			rendered[name] = append(rendered[name], simplifiedAttribute(ar, opts))
		default:
			instances, err := fullInstances(ar, opts)
			if err != nil {
				return nil, err
			}
			rendered[name] = append(rendered[name], instances...)
		}
	}

	for _, name := range names {
		objects := rendered[name]

		if opts.Representation == temporal.Full || len(objects) > 1 {
			e.Set(opts.compact(name), objects)
		} else {
			e.Set(opts.compact(name), objects[0])
		}
	}

	if len(scopes) > 0 {
		if scope := renderScopes(scopes, results, q, opts); scope != nil {
			e.Set(scopeAttribute, scope)
		}
	}

	return e, nil
}

func earliest(ar temporal.AttributeResults) time.Time {
	var t time.Time
	for idx, i := range ar.Instances {
		if idx == 0 || i.ComparableTime().Before(t) {
			t = i.ComparableTime()
		}
	}
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func attributeHeader(attr temporal.Attribute, opts Options) map[string]any {
	obj := map[string]any{
		"type": string(attr.Type),
	}

	if attr.HasDatasetID() {
		obj["datasetId"] = attr.DatasetID
	}

	if opts.SysAttrs {
		obj["createdAt"] = formatTime(attr.CreatedAt)
		if attr.ModifiedAt != nil {
			obj["modifiedAt"] = formatTime(*attr.ModifiedAt)
		}
		if attr.DeletedAt != nil {
			obj["deletedAt"] = formatTime(*attr.DeletedAt)
		}
	}

	return obj
}

// fullInstances returns the stored payload of every instance, annotated with
// its instance id and its time on the queried axis
func fullInstances(ar temporal.AttributeResults, opts Options) ([]any, error) {
	instances := make([]any, 0, len(ar.Instances))

	for _, i := range ar.Instances {
		full, ok := i.(temporal.FullInstanceResult)
		if !ok {
			continue
		}

		obj := map[string]any{}
		if len(full.Payload) > 0 {
			if err := json.Unmarshal(full.Payload, &obj); err != nil {
				return nil, ngsierrors.NewStorageError(
					fmt.Sprintf("corrupt payload in instance %s of attribute %s", full.InstanceID, ar.Attribute.Name), err,
				)
			}
		}

		for k, v := range attributeHeader(ar.Attribute, opts) {
			if _, exists := obj[k]; !exists {
				obj[k] = v
			}
		}

		obj["instanceId"] = full.InstanceID
		obj[string(full.TimeProperty)] = formatTime(full.Time)

		instances = append(instances, obj)
	}

	return instances, nil
}

func simplifiedAttribute(ar temporal.AttributeResults, opts Options) map[string]any {
	obj := attributeHeader(ar.Attribute, opts)

	values := make([][]any, 0, len(ar.Instances))
	for _, i := range ar.Instances {
		if s, ok := i.(temporal.SimplifiedInstanceResult); ok {
			values = append(values, []any{s.Value, formatTime(s.Time)})
		}
	}

	obj[ar.Attribute.Type.ValuesKey()] = values

	return obj
}

// aggregatedAttribute holds one list of [value, startAt, endAt] per
// aggregation method. Values that could not be computed are left out.
func aggregatedAttribute(ar temporal.AttributeResults, q temporal.Query, opts Options) map[string]any {
	obj := attributeHeader(ar.Attribute, opts)

	methods := map[temporal.AggregationMethod][][]any{}
	for _, m := range q.AggrMethods {
		methods[m] = [][]any{}
	}

	for _, i := range ar.Instances {
		bucket, ok := i.(temporal.AggregatedInstanceResult)
		if !ok {
			continue
		}

		for _, v := range bucket.Values {
			if v.Failure != nil {
				continue
			}
			methods[v.Method] = append(methods[v.Method], []any{v.Value, formatTime(bucket.Start), formatTime(bucket.End)})
		}
	}

	for m, values := range methods {
		obj[string(m)] = values
	}

	return obj
}

// renderScopes renders the scope history as a synthetic attribute. Aggregated
// scopes are counted over the buckets of the first attribute that has any.
func renderScopes(scopes []temporal.ScopeInstance, results []temporal.AttributeResults, q temporal.Query, opts Options) any {
	switch opts.Representation {
	case temporal.TemporalValues:
		values := make([][]any, 0, len(scopes))
		for _, s := range scopes {
			values = append(values, []any{s.Scopes, formatTime(s.Time)})
		}
		return map[string]any{"type": string(temporal.Property), "values": values}

	case temporal.AggregatedValues:
		return aggregatedScopes(scopes, results, q)

	default:
		instances := make([]any, 0, len(scopes))
		for _, s := range scopes {
			instances = append(instances, map[string]any{
				"type":                 string(temporal.Property),
				"value":                s.Scopes,
				string(s.TimeProperty): formatTime(s.Time),
			})
		}
		return instances
	}
}

func aggregatedScopes(scopes []temporal.ScopeInstance, results []temporal.AttributeResults, q temporal.Query) any {
	var buckets []temporal.AggregatedInstanceResult

	for _, ar := range results {
		for _, i := range ar.Instances {
			if b, ok := i.(temporal.AggregatedInstanceResult); ok {
				buckets = append(buckets, b)
			}
		}
		if len(buckets) > 0 {
			break
		}
	}

	if len(buckets) == 0 {
		return nil
	}

	obj := map[string]any{"type": string(temporal.Property)}

	for _, m := range q.AggrMethods {
		if m != temporal.AggregatedTotalCount && m != temporal.AggregatedDistinctCount {
			continue
		}

		values := [][]any{}

		for _, b := range buckets {
			instances := []temporal.AttributeInstance{}
			for _, s := range scopes {
				if !s.Time.Before(b.Start) && s.Time.Before(b.End) {
					v, _ := json.Marshal(s.Scopes)
					value := string(v)
					instances = append(instances, temporal.AttributeInstance{Time: s.Time, Value: &value})
				}
			}

			if len(instances) == 0 {
				continue
			}

			count, err := aggregation.Aggregate(m, temporal.ArrayValue, instances)
			if err != nil {
				continue
			}
			values = append(values, []any{count, formatTime(b.Start), formatTime(b.End)})
		}

		obj[string(m)] = values
	}

	return obj
}
