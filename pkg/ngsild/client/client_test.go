package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"

	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var anyInput = expects.AnyInput
var method = expects.RequestMethod
var path = expects.RequestPath
var bodyContaining = expects.RequestBodyContaining
var queryParam = expects.QueryParamEquals

func TestRetrieveTemporalEvolutionOfAnEntity(t *testing.T) {
	is := is.New(t)

	timeStr := "2018-08-01T12:00:00Z"

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/ngsi-ld/v1/temporal/entities/B9211"),
			queryParam("timerel", "after"),
			queryParam("timeAt", timeStr),
			queryParam("lastN", "3"),
		),
		Returns(
			response.ContentType("application/ld+json"),
			response.Code(http.StatusOK),
			response.Body([]byte(temporalEntityResponse)),
		),
	)
	defer s.Close()

	timeAt, _ := time.Parse(time.RFC3339, timeStr)

	c := NewTemporalClient(s.URL())
	result, err := c.RetrieveTemporalEvolutionOfEntity(context.Background(), "B9211", nil, After(timeAt), LastN(3))

	is.NoErr(err)
	is.True(!result.IsPartial())
	is.Equal(result.Entity.ID(), "urn:ngsi-ld:Vehicle:B9211")

	attributes := []string{}
	result.Entity.ForEachAttribute(func(name string, _ any) {
		attributes = append(attributes, name)
	})
	is.Equal(attributes, []string{"speed"})
}

func TestRetrieveAggregatedTemporalEvolutionOfAnEntity(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			path("/ngsi-ld/v1/temporal/entities/id"),
			queryParam("aggrMethods", "max,min"),
			queryParam("aggrPeriodDuration", "P1D"),
			queryParam("options", "aggregatedValues,sysAttrs"),
		),
		Returns(
			response.ContentType("application/ld+json"),
			response.Code(http.StatusOK),
			response.Body([]byte(temporalEntityResponse)),
		),
	)
	defer s.Close()

	c := NewTemporalClient(s.URL())
	_, err := c.RetrieveTemporalEvolutionOfEntity(context.Background(), "id", nil,
		Aggregation(
			[]temporal.AggregationMethod{temporal.AggregatedMax, temporal.AggregatedMin},
			temporal.ByDay(),
		),
		SysAttrs(),
	)

	is.NoErr(err)
}

func TestRetrievePartialTemporalEvolutionOfAnEntity(t *testing.T) {
	is := is.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/ld+json")
		w.Header().Add("Content-Range", "date-time 2018-08-01T12:07:00Z-2018-08-01T12:05:00Z/3")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(temporalEntityResponse))
	}))
	defer s.Close()

	c := NewTemporalClient(s.URL)
	result, err := c.RetrieveTemporalEvolutionOfEntity(context.Background(), "id", nil, LastN(3))

	is.NoErr(err)
	is.True(result.IsPartial())
	is.Equal(result.LastN, 3)
	is.True(result.Range.Start.Equal(time.Date(2018, 8, 1, 12, 7, 0, 0, time.UTC)))
}

func TestRetrievePartialResultWithBrokenContentRangeFails(t *testing.T) {
	is := is.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Range", "bytes 0-10/*")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(temporalEntityResponse))
	}))
	defer s.Close()

	c := NewTemporalClient(s.URL)
	_, err := c.RetrieveTemporalEvolutionOfEntity(context.Background(), "id", nil)

	is.True(errors.Is(err, ngsierrors.ErrBadResponse))
}

func TestRetrieveTemporalEvolutionOfAnUnknownEntity(t *testing.T) {
	is := is.New(t)

	b := []byte("{\"type\":\"https://uri.etsi.org/ngsi-ld/errors/ResourceNotFound\",\"title\":\"Not Found\",\"detail\":\"no entity\"}")

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/problem+json"),
			response.Code(http.StatusNotFound),
			response.Body(b),
		),
	)
	defer s.Close()

	c := NewTemporalClient(s.URL())
	_, err := c.RetrieveTemporalEvolutionOfEntity(context.Background(), "id", nil)

	is.True(errors.Is(err, ngsierrors.ErrNotFound))
}

func TestThatTheTenantIsSentAsAHeader(t *testing.T) {
	is := is.New(t)

	tenant := ""
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant = r.Header.Get("NGSILD-Tenant")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	_, err := NewTemporalClient(s.URL, Tenant("kommunen")).DeleteTemporalEvolutionOfEntity(context.Background(), "id")
	is.NoErr(err)
	is.Equal(tenant, "kommunen")

	_, err = NewTemporalClient(s.URL).DeleteTemporalEvolutionOfEntity(context.Background(), "id")
	is.NoErr(err)
	is.Equal(tenant, "") // the default tenant should not be sent
}

func TestQueryTemporalEvolutionOfEntities(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/ngsi-ld/v1/temporal/entities"),
			queryParam("id", "urn:ngsi-ld:Vehicle:B9211,urn:ngsi-ld:Vehicle:B9212"),
			queryParam("attrs", "speed"),
			queryParam("timerel", "between"),
			queryParam("timeAt", "2018-08-01T00:00:00Z"),
			queryParam("endTimeAt", "2018-08-02T00:00:00Z"),
			queryParam("options", "temporalValues"),
		),
		Returns(
			response.ContentType("application/ld+json"),
			response.Code(http.StatusOK),
			response.Body([]byte("["+temporalEntityResponse+"]")),
		),
	)
	defer s.Close()

	from := time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)

	c := NewTemporalClient(s.URL())
	result, err := c.QueryTemporalEvolutionOfEntities(context.Background(), nil,
		IDs([]string{"urn:ngsi-ld:Vehicle:B9211", "urn:ngsi-ld:Vehicle:B9212"}),
		Attributes([]string{"speed"}),
		Between(from, from.Add(24*time.Hour)),
		TemporalValues(),
	)

	is.NoErr(err)
	is.Equal(len(result.Entities), 1)
	is.Equal(result.Entities[0].Type(), "Vehicle")
}

func TestUpsertTemporalEvolutionOfEntity(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/ngsi-ld/v1/temporal/entities"),
			bodyContaining("urn:ngsi-ld:Vehicle:B9211"),
		),
		Returns(
			response.ContentType("application/ld+json"),
			response.Location("/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211"),
			response.Code(http.StatusCreated),
		),
	)
	defer s.Close()

	c := NewTemporalClient(s.URL())
	result, err := c.UpsertTemporalEvolutionOfEntity(context.Background(), testEntity(), nil)

	is.NoErr(err)
	is.True(result.Created())
	is.Equal(result.Location(), "/ngsi-ld/v1/temporal/entities/urn:ngsi-ld:Vehicle:B9211")
}

func TestUpsertTemporalEvolutionOfAnExistingEntity(t *testing.T) {
	is := is.New(t)

	contentType := ""
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	c := NewTemporalClient(s.URL)
	result, err := c.UpsertTemporalEvolutionOfEntity(context.Background(), testEntity(), nil)

	is.NoErr(err)
	is.True(!result.Created())
	is.Equal(contentType, "application/ld+json")
}

func TestUpsertWithBadDataReturnsBadRequest(t *testing.T) {
	is := is.New(t)

	b := []byte("{\"type\":\"https://uri.etsi.org/ngsi-ld/errors/BadRequestData\",\"title\":\"Bad Request Data\",\"detail\":\"nope\"}")

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/problem+json"),
			response.Code(http.StatusBadRequest),
			response.Body(b),
		),
	)
	defer s.Close()

	c := NewTemporalClient(s.URL())
	_, err := c.UpsertTemporalEvolutionOfEntity(context.Background(), testEntity(), nil)

	is.True(errors.Is(err, ngsierrors.ErrBadRequest))
}

func TestDeleteAttributeHistory(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodDelete),
			path("/ngsi-ld/v1/temporal/entities/id/attrs/speed"),
			queryParam("datasetId", "urn:ngsi-ld:Dataset:gps"),
		),
		Returns(
			response.Code(http.StatusNoContent),
		),
	)
	defer s.Close()

	c := NewTemporalClient(s.URL())
	_, err := c.DeleteAttributeHistory(context.Background(), "id", "speed", "urn:ngsi-ld:Dataset:gps")

	is.NoErr(err)
}

func TestDeleteAttributeInstance(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodDelete),
			path("/ngsi-ld/v1/temporal/entities/id/attrs/speed/instance1"),
		),
		Returns(
			response.Code(http.StatusNoContent),
		),
	)
	defer s.Close()

	c := NewTemporalClient(s.URL())
	_, err := c.DeleteAttributeInstance(context.Background(), "id", "speed", "instance1")

	is.NoErr(err)
}

func TestDeleteOnUnexpectedSuccessCodeFails(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.Code(http.StatusOK),
		),
	)
	defer s.Close()

	c := NewTemporalClient(s.URL())
	_, err := c.DeleteTemporalEvolutionOfEntity(context.Background(), "id")

	is.True(errors.Is(err, ngsierrors.ErrInternal))
}

func testEntity() *entities.TemporalEntityImpl {
	return entities.NewTemporal("urn:ngsi-ld:Vehicle:B9211", []string{"Vehicle"},
		entities.Attr("speed", []any{
			map[string]any{"type": "Property", "value": 120, "observedAt": "2018-08-01T12:03:00Z"},
			map[string]any{"type": "Property", "value": 80, "observedAt": "2018-08-01T12:05:00Z"},
		}),
	)
}

const temporalEntityResponse string = `{
	"id":"urn:ngsi-ld:Vehicle:B9211", "type":"Vehicle",
"speed":[
{
"type":"Property",
"value":120, "observedAt":"2018-08-01T12:03:00Z"
}, {
"type":"Property",
"value":80, "observedAt":"2018-08-01T12:05:00Z"
}, {
"type":"Property",
"value":100, "observedAt":"2018-08-01T12:07:00Z"
} ],
"@context":[
"http://example.org/ngsi-ld/latest/vehicle.jsonld", "https://uri.etsi.org/ngsi-ld/v1/ngsi-ld-core-context-v1.5.jsonld"
] }`
