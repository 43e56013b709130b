package troe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type pendingInstance struct {
	timeProperty temporal.TimeProperty
	at           time.Time
	value        any
	payload      json.RawMessage
}

type pendingAttribute struct {
	name      string
	datasetID string
	attrType  temporal.AttributeType
	instances []pendingInstance
}

func (p pendingAttribute) key() string {
	return p.name + "\x00" + p.datasetID
}

// UpsertTemporalEvolutionOfEntity appends every attribute instance of a temporal
// entity to the history. Instances without an observedAt are recorded on the
// createdAt axis at the time of the request.
func (app *troeApp) UpsertTemporalEvolutionOfEntity(ctx context.Context, tenant string, entity types.EntityTemporal) (created bool, err error) {
	ctx, span := tracer.Start(ctx, "upsert-temporal-evolution", trace.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.String("entityId", entity.ID()),
	))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	ts, err := app.tenant(tenant)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, app.cfg.QueryTimeout)
	defer cancel()

	now := time.Now().UTC()

	pending, scopes, err := parseTemporalAttributes(entity, now)
	if err != nil {
		return false, err
	}

	existing, retrieveErr := ts.store.RetrieveEntity(ctx, entity.ID())
	if retrieveErr != nil && !errors.Is(retrieveErr, ngsierrors.ErrNotFound) {
		return false, retrieveErr
	}
	created = retrieveErr != nil

	payload := temporal.EntityPayload{
		ID:        entity.ID(),
		Types:     entity.Types(),
		Scopes:    existing.Scopes,
		CreatedAt: now,
		Payload:   entityHeader(entity),
	}
	if !created {
		payload.CreatedAt = existing.CreatedAt
		payload.ModifiedAt = &now
	}
	if scopes != nil {
		payload.Scopes = scopes
	}

	if err = ts.store.UpsertEntity(ctx, payload); err != nil {
		return false, err
	}

	known, err := ts.store.GetAttributesForEntity(ctx, entity.ID(), nil, nil)
	if err != nil {
		return false, err
	}

	valueTypes := map[string]temporal.ValueType{}
	for _, a := range known {
		valueTypes[pendingAttribute{name: a.Name, datasetID: a.DatasetID}.key()] = a.ValueType
	}

	count := 0

	for _, p := range pending {
		vt, ok := valueTypes[p.key()]
		if !ok {
			vt = temporal.GuessValueType(p.attrType, p.instances[0].value)
		}

		latest := p.instances[len(p.instances)-1]

		attr, err := ts.store.UpsertAttribute(ctx, temporal.Attribute{
			EntityID:   entity.ID(),
			Name:       p.name,
			DatasetID:  p.datasetID,
			Type:       p.attrType,
			ValueType:  vt,
			CreatedAt:  now,
			ModifiedAt: &now,
			Payload:    latest.payload,
		})
		if err != nil {
			return false, err
		}

		for _, pi := range p.instances {
			instance, err := attr.NewInstance(pi.timeProperty, pi.at, pi.value, pi.payload)
			if err != nil {
				return false, ngsierrors.NewBadRequestDataError(fmt.Sprintf("invalid value for attribute %s: %s", p.name, err.Error()))
			}

			if err = ts.store.Append(ctx, instance); err != nil {
				return false, err
			}
		}

		count += len(p.instances)
		ingestedInstancesTotal.WithLabelValues(string(p.attrType)).Add(float64(len(p.instances)))
	}

	if scopes != nil {
		err = ts.store.AppendScope(ctx, temporal.ScopeInstance{
			EntityID:     entity.ID(),
			TimeProperty: temporal.ObservedAt,
			Time:         now,
			Scopes:       scopes,
		})
		if err != nil {
			return false, err
		}
	}

	logging.GetFromContext(ctx).Debug("appended temporal evolution of entity",
		slog.String("entity_id", entity.ID()), slog.Int("instances", count), slog.Bool("created", created))

	return created, nil
}

var systemAttributes = map[string]bool{
	"createdAt": true, "modifiedAt": true, "deletedAt": true,
}

// parseTemporalAttributes groups the instances of each attribute by dataset and
// extracts any scope of the entity
func parseTemporalAttributes(entity types.EntityTemporal, now time.Time) ([]pendingAttribute, []string, error) {
	var parseErr error
	var scopes []string

	pending := []pendingAttribute{}
	index := map[string]int{}

	entity.ForEachAttribute(func(name string, contents any) {
		if parseErr != nil || systemAttributes[name] {
			return
		}

		if name == "scope" {
			scopes, parseErr = parseScopes(contents)
			return
		}

		instances, err := instancesOf(name, contents)
		if err != nil {
			parseErr = err
			return
		}

		for _, inst := range instances {
			attrType, err := temporal.ParseAttributeType(stringMember(inst, "type"))
			if err != nil {
				parseErr = ngsierrors.NewBadRequestDataError(fmt.Sprintf("attribute %s: %s", name, err.Error()))
				return
			}

			value, ok := inst[attrType.ValueKey()]
			if !ok {
				parseErr = ngsierrors.NewBadRequestDataError(fmt.Sprintf("instance of attribute %s has no %s", name, attrType.ValueKey()))
				return
			}

			pi := pendingInstance{timeProperty: temporal.CreatedAt, at: now, value: value}

			if observedAt := stringMember(inst, "observedAt"); observedAt != "" {
				pi.at, err = time.Parse(time.RFC3339Nano, observedAt)
				if err != nil {
					parseErr = ngsierrors.NewBadRequestDataError(fmt.Sprintf("attribute %s has an invalid observedAt %q", name, observedAt))
					return
				}
				pi.timeProperty = temporal.ObservedAt
			}

			pi.payload, err = json.Marshal(inst)
			if err != nil {
				parseErr = err
				return
			}

			p := pendingAttribute{name: name, datasetID: stringMember(inst, "datasetId"), attrType: attrType}

			idx, ok := index[p.key()]
			if !ok {
				idx = len(pending)
				index[p.key()] = idx
				pending = append(pending, p)
			}

			pending[idx].instances = append(pending[idx].instances, pi)
		}
	})

	return pending, scopes, parseErr
}

func instancesOf(name string, contents any) ([]map[string]any, error) {
	switch c := contents.(type) {
	case map[string]any:
		return []map[string]any{c}, nil
	case []any:
		instances := make([]map[string]any, 0, len(c))
		for _, v := range c {
			inst, ok := v.(map[string]any)
			if !ok {
				return nil, ngsierrors.NewBadRequestDataError(fmt.Sprintf("attribute %s contains an instance that is not an object", name))
			}
			instances = append(instances, inst)
		}
		return instances, nil
	default:
		return nil, ngsierrors.NewBadRequestDataError(fmt.Sprintf("attribute %s is neither an instance nor a list of instances", name))
	}
}

func parseScopes(contents any) ([]string, error) {
	switch c := contents.(type) {
	case string:
		return []string{c}, nil
	case []any:
		scopes := make([]string, 0, len(c))
		for _, v := range c {
			s, ok := v.(string)
			if !ok {
				return nil, ngsierrors.NewBadRequestDataError("scope must be a string or a list of strings")
			}
			scopes = append(scopes, s)
		}
		return scopes, nil
	default:
		return nil, ngsierrors.NewBadRequestDataError("scope must be a string or a list of strings")
	}
}

func stringMember(m map[string]any, name string) string {
	s, _ := m[name].(string)
	return s
}

// entityHeader is the payload kept for an entity. The history of its
// attributes lives in the instance store.
func entityHeader(entity types.EntityTemporal) json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"id":   entity.ID(),
		"type": entity.Types(),
	})
	return b
}
