package ngsild

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/diwise/troe/internal/pkg/application/cim"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types"
	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

func TestRetrieveTemporalEvolutionOfAnEntity(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.RetrieveTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant, entityID string, q temporal.Query, opts cim.TemporalOptions) (*cim.TemporalEntityResult, error) {
		e, err := entities.NewTemporalFromJSON([]byte(indentedTemporalEvolutionOfEntity))
		return cim.NewTemporalEntityResult(e, nil, 0), err
	}

	resp, respBody := newTestRequest(is, ts, http.MethodGet, "/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211", nil)

	is.Equal(resp.StatusCode, http.StatusOK) // Check status code
	is.Equal(resp.Header.Get("Content-Type"), "application/ld+json")
	is.Equal(respBody, temporalEvolutionOfEntity)

	call := app.RetrieveTemporalEvolutionOfEntityCalls()[0]
	is.Equal(call.Tenant, "default")
	is.Equal(call.EntityID, "urn:ngsi-ld:Vehicle:B9211")
	is.Equal(call.Q.InstanceLimit, 100)                // default instance limit should be applied
	is.Equal(call.Q.TimeProperty, temporal.ObservedAt) // observedAt is the default time property
	is.Equal(call.Opts.Representation, temporal.Full)
}

func TestRetrievePartialTemporalEvolutionReturnsContentRange(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	start := time.Date(2018, 8, 1, 12, 7, 0, 0, time.UTC)
	end := time.Date(2018, 8, 1, 12, 3, 0, 0, time.UTC)

	app.RetrieveTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant, entityID string, q temporal.Query, opts cim.TemporalOptions) (*cim.TemporalEntityResult, error) {
		e, err := entities.NewTemporalFromJSON([]byte(indentedTemporalEvolutionOfEntity))
		return cim.NewTemporalEntityResult(e, &temporal.Range{Start: start, End: end}, q.LastN), err
	}

	resp, _ := newTestRequest(is, ts, http.MethodGet, "/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211?lastN=3", nil)

	is.Equal(resp.StatusCode, http.StatusPartialContent) // Check status code
	is.Equal(resp.Header.Get("Content-Range"), "date-time 2018-08-01T12:07:00Z-2018-08-01T12:03:00Z/3")
}

func TestRetrieveForwardsQueryParameters(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.RetrieveTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant, entityID string, q temporal.Query, opts cim.TemporalOptions) (*cim.TemporalEntityResult, error) {
		return cim.NewTemporalEntityResult(entities.NewTemporal(entityID, []string{"Vehicle"}), nil, 0), nil
	}

	resp, _ := newTestRequest(is, ts, http.MethodGet,
		"/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211?attrs=speed,fuel&datasetId=@none,urn:ngsi-ld:Dataset:gps"+
			"&timerel=between&timeAt=2022-01-01T00:00:00Z&endTimeAt=2022-02-01T00:00:00Z&timeproperty=modifiedAt"+
			"&options=temporalValues,sysAttrs",
		nil)

	is.Equal(resp.StatusCode, http.StatusOK) // Check status code

	call := app.RetrieveTemporalEvolutionOfEntityCalls()[0]
	is.Equal(call.Opts.Attributes, []string{"speed", "fuel"})
	is.Equal(call.Opts.DatasetIDs, []string{"", "urn:ngsi-ld:Dataset:gps"})
	is.Equal(call.Opts.Representation, temporal.TemporalValues)
	is.True(call.Opts.SysAttrs)
	is.Equal(call.Q.TimeRel, temporal.TimeRelBetween)
	is.Equal(call.Q.TimeAt, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	is.Equal(call.Q.EndTimeAt, time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC))
	is.Equal(call.Q.TimeProperty, temporal.ModifiedAt)
}

func TestRetrieveAggregatedValues(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.RetrieveTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant, entityID string, q temporal.Query, opts cim.TemporalOptions) (*cim.TemporalEntityResult, error) {
		return cim.NewTemporalEntityResult(entities.NewTemporal(entityID, []string{"Vehicle"}), nil, 0), nil
	}

	resp, _ := newTestRequest(is, ts, http.MethodGet,
		"/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211?options=aggregatedValues&aggrMethods=sum,max&aggrPeriodDuration=PT1H",
		nil)

	is.Equal(resp.StatusCode, http.StatusOK) // Check status code

	call := app.RetrieveTemporalEvolutionOfEntityCalls()[0]
	is.Equal(call.Opts.Representation, temporal.AggregatedValues)
	is.Equal(call.Q.AggrMethods, []temporal.AggregationMethod{temporal.AggregatedSum, temporal.AggregatedMax})
	is.Equal(call.Q.AggrPeriodDuration.Clock, time.Hour)
}

func TestRetrieveWithInvalidParametersReturnsBadRequest(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	for _, query := range []string{
		"timerel=during&timeAt=2022-01-01T00:00:00Z",
		"timerel=after",
		"timerel=after&timeAt=yesterday",
		"timerel=between&timeAt=2022-02-01T00:00:00Z&endTimeAt=2022-01-01T00:00:00Z",
		"lastN=-1",
		"lastN=many",
		"aggrMethods=median",
		"options=aggregatedValues",
		"aggrMethods=sum&aggrPeriodDuration=1hour",
		"timeproperty=happenedAt",
		"options=nonsense",
	} {
		resp, _ := newTestRequest(is, ts, http.MethodGet, "/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211?"+query, nil)
		is.Equal(resp.StatusCode, http.StatusBadRequest) // invalid query parameters should be rejected
	}

	is.Equal(len(app.RetrieveTemporalEvolutionOfEntityCalls()), 0) // app should not have been called
}

func TestRetrieveUnsupportedAggregationReturnsUnprocessable(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.RetrieveTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant, entityID string, q temporal.Query, opts cim.TemporalOptions) (*cim.TemporalEntityResult, error) {
		return nil, ngsierrors.NewOperationNotSupportedError("sum is not supported for attribute name")
	}

	resp, _ := newTestRequest(is, ts, http.MethodGet, "/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211?aggrMethods=sum", nil)

	is.Equal(resp.StatusCode, http.StatusUnprocessableEntity) // Check status code
}

func TestRetrieveStorageTimeoutReturnsServiceUnavailable(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.RetrieveTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant, entityID string, q temporal.Query, opts cim.TemporalOptions) (*cim.TemporalEntityResult, error) {
		return nil, ngsierrors.NewStorageTimeoutError("range query timed out", context.DeadlineExceeded)
	}

	resp, _ := newTestRequest(is, ts, http.MethodGet, "/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211", nil)

	is.Equal(resp.StatusCode, http.StatusServiceUnavailable) // Check status code
}

func TestQueryTemporalEvolutionOfEntities(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.QueryTemporalEvolutionOfEntitiesFunc = func(ctx context.Context, tenant string, entityIDs []string, q temporal.Query, opts cim.TemporalOptions) (*cim.QueryTemporalEntitiesResult, error) {
		e, err := entities.NewTemporalFromJSON([]byte(indentedTemporalEvolutionOfEntity))
		return &cim.QueryTemporalEntitiesResult{Entities: []types.EntityTemporal{e}}, err
	}

	resp, respBody := newTestRequest(is, ts, http.MethodGet, "/ngsi-ld/v1/temporal/entities?id=urn:ngsi-ld:Vehicle:B9211,urn:ngsi-ld:Vehicle:B9212&timerel=after&timeAt=2018-08-01T12:00:00Z", nil)

	is.Equal(resp.StatusCode, http.StatusOK) // Check status code
	is.Equal(respBody, "["+temporalEvolutionOfEntity+"]")

	call := app.QueryTemporalEvolutionOfEntitiesCalls()[0]
	is.Equal(call.EntityIDs, []string{"urn:ngsi-ld:Vehicle:B9211", "urn:ngsi-ld:Vehicle:B9212"})
	is.Equal(call.Q.TimeRel, temporal.TimeRelAfter)
}

func TestQueryTemporalEvolutionWithoutIDsReturnsBadRequest(t *testing.T) {
	is, ts, _ := setupTest(t)
	defer ts.Close()

	resp, _ := newTestRequest(is, ts, http.MethodGet, "/ngsi-ld/v1/temporal/entities?timerel=after&timeAt=2018-08-01T12:00:00Z", nil)

	is.Equal(resp.StatusCode, http.StatusBadRequest) // Check status code
}

const temporalEvolutionOfEntity string = `{"@context":["http://example.org/ngsi-ld/latest/vehicle.jsonld","https://uri.etsi.org/ngsi-ld/v1/ngsi-ld-core-context-v1.5.jsonld"],"id":"urn:ngsi-ld:Vehicle:B9211","speed":[{"observedAt":"2018-08-01T12:03:00Z","type":"Property","value":120},{"observedAt":"2018-08-01T12:05:00Z","type":"Property","value":80},{"observedAt":"2018-08-01T12:07:00Z","type":"Property","value":100}],"type":"Vehicle"}`

const indentedTemporalEvolutionOfEntity string = `{
	"id": "urn:ngsi-ld:Vehicle:B9211",
	"type": "Vehicle",
	"speed":[
		{
			"type": "Property",
			"value": 120,
			"observedAt": "2018-08-01T12:03:00Z"
		},
		{
			"type": "Property",
			"value": 80,
			"observedAt": "2018-08-01T12:05:00Z"
		},
		{
			"type": "Property",
			"value": 100,
			"observedAt": "2018-08-01T12:07:00Z"
		}
	],
	"@context":[
		"http://example.org/ngsi-ld/latest/vehicle.jsonld",
		"https://uri.etsi.org/ngsi-ld/v1/ngsi-ld-core-context-v1.5.jsonld"
	]
}`

func TestUpsertTemporalEvolutionOfEntity(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.UpsertTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant string, entity types.EntityTemporal) (bool, error) {
		return true, nil
	}

	resp, _ := newTestRequest(is, ts, http.MethodPost, "/ngsi-ld/v1/temporal/entities", strings.NewReader(indentedTemporalEvolutionOfEntity))

	is.Equal(resp.StatusCode, http.StatusCreated) // Check status code
	is.Equal(resp.Header.Get("Location"), "/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211")

	call := app.UpsertTemporalEvolutionOfEntityCalls()[0]
	is.Equal(call.Entity.ID(), "urn:ngsi-ld:Vehicle:B9211")
	is.Equal(call.Entity.Type(), "Vehicle")
}

func TestUpsertTemporalEvolutionOfExistingEntity(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	app.UpsertTemporalEvolutionOfEntityFunc = func(ctx context.Context, tenant string, entity types.EntityTemporal) (bool, error) {
		return false, nil
	}

	resp, _ := newTestRequest(is, ts, http.MethodPost, "/ngsi-ld/v1/temporal/entities", strings.NewReader(indentedTemporalEvolutionOfEntity))

	is.Equal(resp.StatusCode, http.StatusNoContent) // Check status code
}

func TestUpsertTemporalEvolutionWithBadDataReturnsBadRequest(t *testing.T) {
	is, ts, app := setupTest(t)
	defer ts.Close()

	resp, _ := newTestRequest(is, ts, http.MethodPost, "/ngsi-ld/v1/temporal/entities", strings.NewReader("this is not my json"))

	is.Equal(resp.StatusCode, http.StatusBadRequest)             // Check status code
	is.Equal(len(app.UpsertTemporalEvolutionOfEntityCalls()), 0) // app should not have been called
}
