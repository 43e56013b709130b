package ngsild

import (
	"net/http"
	"net/url"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/diwise/troe/internal/pkg/application/cim"
	"github.com/diwise/troe/internal/pkg/presentation/api/ngsi-ld/auth"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NewDeleteTemporalEntityHandler removes the complete history of an entity
func NewDeleteTemporalEntityHandler(
	contextInformationManager cim.AttributeHistoryDeleter,
	authenticator auth.Enticator) http.HandlerFunc {

	return newDeleteHandler("delete-temporal-entity", authenticator,
		func(r *http.Request, tenant, entityID string) error {
			return contextInformationManager.DeleteEntityHistory(r.Context(), tenant, entityID)
		},
	)
}

// NewDeleteAttributeHistoryHandler removes all instances of one attribute,
// limited to a single dataset when a datasetId is given
func NewDeleteAttributeHistoryHandler(
	contextInformationManager cim.AttributeHistoryDeleter,
	authenticator auth.Enticator) http.HandlerFunc {

	return newDeleteHandler("delete-attribute-history", authenticator,
		func(r *http.Request, tenant, entityID string) error {
			attrName, _ := url.QueryUnescape(chi.URLParam(r, "attrId"))

			datasetID := r.URL.Query().Get("datasetId")
			if datasetID == noDatasetID {
				datasetID = ""
			}

			return contextInformationManager.DeleteAttributeHistory(r.Context(), tenant, entityID, attrName, datasetID)
		},
	)
}

func NewDeleteAttributeInstanceHandler(
	contextInformationManager cim.AttributeHistoryDeleter,
	authenticator auth.Enticator) http.HandlerFunc {

	return newDeleteHandler("delete-attribute-instance", authenticator,
		func(r *http.Request, tenant, entityID string) error {
			attrName, _ := url.QueryUnescape(chi.URLParam(r, "attrId"))
			instanceID, _ := url.QueryUnescape(chi.URLParam(r, "instanceId"))

			return contextInformationManager.DeleteAttributeInstance(r.Context(), tenant, entityID, attrName, instanceID)
		},
	)
}

func newDeleteHandler(spanName string, authenticator auth.Enticator, deleteFn func(r *http.Request, tenant, entityID string) error) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)
		entityID, _ := url.QueryUnescape(chi.URLParam(r, "entityId"))

		ctx, span := tracer.Start(ctx, spanName,
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

		err = deleteFn(r.WithContext(ctx), tenant, entityID)
		if err != nil {
			log.Error("delete failed", "entityID", entityID, "err", err.Error())
			ngsierrors.ReportError(w, err, traceID(ctx))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
