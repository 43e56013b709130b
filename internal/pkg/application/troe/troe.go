package troe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/diwise/troe/internal/pkg/application/assembler"
	"github.com/diwise/troe/internal/pkg/application/cim"
	"github.com/diwise/troe/internal/pkg/application/pagination"
	"github.com/diwise/troe/internal/pkg/application/query"
	"github.com/diwise/troe/internal/pkg/infrastructure/database"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types"
	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("troe/app")

// StoreFactory returns the store that holds the history of a tenant
type StoreFactory func(ctx context.Context, tenant Tenant) (database.Store, error)

type tenantStore struct {
	store  database.Store
	engine *query.Engine
}

type troeApp struct {
	tenants map[string]tenantStore
	cfg     TemporalConfig
}

func New(ctx context.Context, cfg Config, newStore StoreFactory) (cim.ContextInformationManager, error) {
	loc, err := cfg.Temporal.Location()
	if err != nil {
		return nil, err
	}

	app := &troeApp{
		tenants: make(map[string]tenantStore),
		cfg:     cfg.Temporal,
	}

	for _, tenant := range cfg.Tenants {
		store, err := newStore(ctx, tenant)
		if err != nil {
			return nil, fmt.Errorf("failed to create store for tenant %s: %w", tenant.ID, err)
		}

		app.tenants[tenant.ID] = tenantStore{
			store: store,
			engine: query.NewEngine(store,
				query.WithLocation(loc),
				query.WithFailurePolicy(cfg.Temporal.AggregationFailures),
			),
		}
	}

	return app, nil
}

func (app *troeApp) tenant(tenant string) (tenantStore, error) {
	ts, ok := app.tenants[tenant]
	if !ok {
		return ts, ngsierrors.NewUnknownTenantError(tenant)
	}
	return ts, nil
}

func (app *troeApp) RetrieveTemporalEvolutionOfEntity(ctx context.Context, tenant, entityID string, q temporal.Query, opts cim.TemporalOptions) (result *cim.TemporalEntityResult, err error) {
	ctx, span := tracer.Start(ctx, "retrieve-temporal-evolution", trace.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.String("entityId", entityID),
	))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	timer := prometheus.NewTimer(retrievalDuration.WithLabelValues(opts.Representation.String()))
	defer timer.ObserveDuration()
	defer func() { countRetrieval(opts.Representation, err) }()

	ts, err := app.tenant(tenant)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, app.cfg.QueryTimeout)
	defer cancel()

	attrs, err := ts.store.GetAttributesForEntity(ctx, entityID, opts.Attributes, opts.DatasetIDs)
	if err != nil {
		return nil, err
	}

	entity, err := app.entityPayload(ctx, ts.store, entityID, len(attrs) > 0)
	if err != nil {
		return nil, err
	}

	results, err := app.searchAll(ctx, ts.engine, q, attrs, opts.Representation)
	if err != nil {
		return nil, err
	}

	results, r := pagination.GetRangeAndPaginatedTEA(results, q)
	if r != nil {
		paginatedTotal.Inc()
	}

	scopes, err := app.scopeHistory(ctx, ts.store, []string{entityID}, q, r)
	if err != nil {
		return nil, err
	}

	e, err := assembler.BuildTemporalEntity(entity, scopes, results, q, assemblerOptions(opts))
	if err != nil {
		return nil, err
	}

	return cim.NewTemporalEntityResult(e, r, q.LastN), nil
}

func (app *troeApp) QueryTemporalEvolutionOfEntities(ctx context.Context, tenant string, entityIDs []string, q temporal.Query, opts cim.TemporalOptions) (result *cim.QueryTemporalEntitiesResult, err error) {
	ctx, span := tracer.Start(ctx, "query-temporal-evolution", trace.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.Int("entities", len(entityIDs)),
	))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	timer := prometheus.NewTimer(retrievalDuration.WithLabelValues(opts.Representation.String()))
	defer timer.ObserveDuration()
	defer func() { countRetrieval(opts.Representation, err) }()

	if len(entityIDs) == 0 {
		return nil, ngsierrors.NewBadRequestDataError("at least one entity id is required")
	}

	ts, err := app.tenant(tenant)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, app.cfg.QueryTimeout)
	defer cancel()

	attrs, err := ts.store.GetAttributesForEntities(ctx, entityIDs, opts.Attributes)
	if err != nil {
		return nil, err
	}

	results, err := app.searchAll(ctx, ts.engine, q, attrs, opts.Representation)
	if err != nil {
		return nil, err
	}

	// One shared window across every entity keeps the page consistent
	results, r := pagination.GetRangeAndPaginatedTEA(results, q)
	if r != nil {
		paginatedTotal.Inc()
	}

	byEntity := map[string][]temporal.AttributeResults{}
	for _, ar := range results {
		byEntity[ar.Attribute.EntityID] = append(byEntity[ar.Attribute.EntityID], ar)
	}

	result = &cim.QueryTemporalEntitiesResult{
		Entities: []types.EntityTemporal{},
		Range:    r,
		LastN:    q.LastN,
	}

	for _, entityID := range entityIDs {
		entity, err := app.entityPayload(ctx, ts.store, entityID, len(byEntity[entityID]) > 0)
		if err != nil {
			if errors.Is(err, ngsierrors.ErrNotFound) {
				continue
			}
			return nil, err
		}

		scopes, err := app.scopeHistory(ctx, ts.store, []string{entityID}, q, r)
		if err != nil {
			return nil, err
		}

		e, err := assembler.BuildTemporalEntity(entity, scopes, byEntity[entityID], q, assemblerOptions(opts))
		if err != nil {
			return nil, err
		}

		result.Entities = append(result.Entities, e)
	}

	return result, nil
}

// entityPayload falls back to an entity with only an id when the payload is
// gone but history remains
func (app *troeApp) entityPayload(ctx context.Context, store database.EntityRepository, entityID string, hasAttributes bool) (temporal.EntityPayload, error) {
	entity, err := store.RetrieveEntity(ctx, entityID)
	if err != nil {
		if errors.Is(err, ngsierrors.ErrNotFound) && hasAttributes {
			return temporal.EntityPayload{ID: entityID}, nil
		}
		return entity, err
	}
	return entity, nil
}

// searchAll runs one search per attribute concurrently. The first failure
// cancels the searches that are still running.
func (app *troeApp) searchAll(ctx context.Context, engine *query.Engine, q temporal.Query, attrs []temporal.Attribute, representation temporal.Representation) ([]temporal.AttributeResults, error) {
	results := make([]temporal.AttributeResults, len(attrs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(app.cfg.MaxConcurrentAttributes)

	for idx, attr := range attrs {
		g.Go(func() error {
			instances, err := engine.Search(ctx, q, attr, representation)
			if err != nil {
				return fmt.Errorf("failed to search history of %s: %w", attr.Name, err)
			}
			results[idx] = temporal.AttributeResults{Attribute: attr, Instances: instances}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	attributeSearches.Observe(float64(len(attrs)))
	countAggregationFailures(results)

	return results, nil
}

func (app *troeApp) scopeHistory(ctx context.Context, store database.ScopeHistoryRepository, entityIDs []string, q temporal.Query, r *temporal.Range) ([]temporal.ScopeInstance, error) {
	scopes, err := store.RetrieveScopeHistory(ctx, entityIDs, q)
	if err != nil {
		return nil, err
	}

	if r == nil || q.IsAggregated() {
		return scopes, nil
	}

	kept := make([]temporal.ScopeInstance, 0, len(scopes))
	for _, s := range scopes {
		if r.Contains(s.Time) {
			kept = append(kept, s)
		}
	}

	return kept, nil
}

func (app *troeApp) DeleteAttributeInstance(ctx context.Context, tenant, entityID, attributeName, instanceID string) (err error) {
	ctx, span := tracer.Start(ctx, "delete-attribute-instance")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	ts, err := app.tenant(tenant)
	if err != nil {
		return err
	}

	if err = ts.store.DeleteInstance(ctx, entityID, attributeName, instanceID); err != nil {
		return err
	}

	deletionsTotal.WithLabelValues("instance").Inc()
	logging.GetFromContext(ctx).Info("deleted attribute instance", slog.String("entity_id", entityID), slog.String("attribute", attributeName), slog.String("instance_id", instanceID))

	return nil
}

func (app *troeApp) DeleteAttributeHistory(ctx context.Context, tenant, entityID, attributeName, datasetID string) (err error) {
	ctx, span := tracer.Start(ctx, "delete-attribute-history")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	ts, err := app.tenant(tenant)
	if err != nil {
		return err
	}

	if err = ts.store.DeleteAllForAttribute(ctx, entityID, attributeName, datasetID); err != nil {
		return err
	}

	deletionsTotal.WithLabelValues("attribute").Inc()
	logging.GetFromContext(ctx).Info("deleted attribute history", slog.String("entity_id", entityID), slog.String("attribute", attributeName))

	return nil
}

func (app *troeApp) DeleteEntityHistory(ctx context.Context, tenant, entityID string) (err error) {
	ctx, span := tracer.Start(ctx, "delete-entity-history")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	ts, err := app.tenant(tenant)
	if err != nil {
		return err
	}

	if err = ts.store.DeleteAllForEntity(ctx, entityID); err != nil {
		return err
	}

	deletionsTotal.WithLabelValues("entity").Inc()
	logging.GetFromContext(ctx).Info("deleted entity history", slog.String("entity_id", entityID))

	return nil
}

func assemblerOptions(opts cim.TemporalOptions) assembler.Options {
	return assembler.Options{
		Representation: opts.Representation,
		RequestedAttrs: opts.Attributes,
		SysAttrs:       opts.SysAttrs,
		Decorators:     []entities.EntityDecoratorFunc{entities.DefaultContext()},
	}
}

func countRetrieval(representation temporal.Representation, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ngsierrors.ErrNotFound):
		result = "not_found"
	case errors.Is(err, ngsierrors.ErrStorageTimeout):
		result = "timeout"
	default:
		result = "error"
	}
	retrievalTotal.WithLabelValues(representation.String(), result).Inc()
}

func countAggregationFailures(results []temporal.AttributeResults) {
	for _, ar := range results {
		for _, i := range ar.Instances {
			bucket, ok := i.(temporal.AggregatedInstanceResult)
			if !ok {
				continue
			}
			for _, v := range bucket.Values {
				if v.Failure != nil {
					aggregationFailuresTotal.WithLabelValues(string(v.Method)).Inc()
				}
			}
		}
	}
}
