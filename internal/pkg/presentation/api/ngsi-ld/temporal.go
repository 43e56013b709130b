package ngsild

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/diwise/troe/internal/pkg/application/cim"
	"github.com/diwise/troe/internal/pkg/presentation/api/ngsi-ld/auth"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func NewRetrieveTemporalEvolutionOfAnEntityHandler(
	contextInformationManager cim.TemporalEntityRetriever,
	authenticator auth.Enticator,
	defaultInstanceLimit int) http.HandlerFunc {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)
		entityID, _ := url.QueryUnescape(chi.URLParam(r, "entityId"))

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		ctx, span := tracer.Start(ctx, "retrieve-temporal-entity",
			trace.WithAttributes(
				attribute.String(TraceAttributeNGSILDTenant, tenant),
				attribute.String(TraceAttributeEntityID, entityID),
			),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, tenant, []string{entityID})
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			ngsierrors.ReportNotFoundError(w, "not found", traceID(ctx))
			return
		}

		q, opts, err := parseTemporalQuery(r.URL.Query(), defaultInstanceLimit)
		if err != nil {
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		result, err := contextInformationManager.RetrieveTemporalEvolutionOfEntity(ctx, tenant, entityID, q, opts)
		if err != nil {
			log.Error("failed to retrieve temporal evolution of entity", "entityID", entityID, "err", err.Error())
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		responseBody, err := json.Marshal(result.Entity)
		if err != nil {
			log.Error("failed to marshal temporal entity", "entityID", entityID, "err", err.Error())
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		writeTemporalResponse(w, r, result.ContentRange(), responseBody)
	})
}

func NewQueryTemporalEvolutionOfEntitiesHandler(
	contextInformationManager cim.TemporalEntityRetriever,
	authenticator auth.Enticator,
	defaultInstanceLimit int) http.HandlerFunc {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		ctx, span := tracer.Start(ctx, "query-temporal-entities",
			trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, tenant)),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		log := logging.GetFromContext(ctx)

		entityIDs := splitList(r.URL.Query().Get("id"))
		if len(entityIDs) == 0 {
			err = ngsierrors.NewBadRequestDataError("at least one entity id is required")
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		err = authenticator.CheckAccess(ctx, r, tenant, entityIDs)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			ngsierrors.ReportNotFoundError(w, "not found", traceID(ctx))
			return
		}

		q, opts, err := parseTemporalQuery(r.URL.Query(), defaultInstanceLimit)
		if err != nil {
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		result, err := contextInformationManager.QueryTemporalEvolutionOfEntities(ctx, tenant, entityIDs, q, opts)
		if err != nil {
			log.Error("failed to query temporal evolution of entities", "err", err.Error())
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		responseBody, err := json.Marshal(result.Entities)
		if err != nil {
			log.Error("failed to marshal temporal entities", "err", err.Error())
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		writeTemporalResponse(w, r, result.ContentRange(), responseBody)
	})
}

// NewUpsertTemporalEvolutionOfEntityHandler records the attribute instances of
// a temporal entity. It answers 201 when the entity was created and 204 when
// history was added to an existing entity.
func NewUpsertTemporalEvolutionOfEntityHandler(
	contextInformationManager cim.TemporalEntityUpserter,
	authenticator auth.Enticator) http.HandlerFunc {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		ctx, span := tracer.Start(ctx, "upsert-temporal-entity",
			trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, tenant)),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		log := logging.GetFromContext(ctx)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			ngsierrors.ReportNewInvalidRequest(w, fmt.Sprintf("unable to read request body: %s", err.Error()), traceID(ctx))
			return
		}

		entity, err := entities.NewTemporalFromJSON(body)
		if err != nil {
			ngsierrors.ReportNewBadRequestData(w, fmt.Sprintf("unable to decode request payload: %s", err.Error()), traceID(ctx))
			return
		}

		span.SetAttributes(attribute.String(TraceAttributeEntityID, entity.ID()))

		err = authenticator.CheckAccess(ctx, r, tenant, []string{entity.ID()})
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			ngsierrors.ReportNotFoundError(w, "not found", traceID(ctx))
			return
		}

		created, err := contextInformationManager.UpsertTemporalEvolutionOfEntity(ctx, tenant, entity)
		if err != nil {
			log.Error("failed to upsert temporal evolution of entity", "entityID", entity.ID(), "err", err.Error())
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		if !created {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Add("Location", "/ngsi-ld/v1/temporal/entities/"+url.PathEscape(entity.ID()))
		w.WriteHeader(http.StatusCreated)
	})
}

// writeTemporalResponse answers with 206 Partial Content and a Content-Range
// header when the history had to be cut short
func writeTemporalResponse(w http.ResponseWriter, r *http.Request, contentRange string, body []byte) {
	w.Header().Add("Content-Type", responseContentType(r))

	status := http.StatusOK
	if contentRange != "" {
		w.Header().Add("Content-Range", contentRange)
		status = http.StatusPartialContent
	}

	w.WriteHeader(status)
	w.Write(body)
}

func responseContentType(r *http.Request) string {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return "application/json"
	}
	return "application/ld+json"
}
