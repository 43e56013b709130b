package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/diwise/troe/pkg/ngsild"
	"github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/types"
	"github.com/diwise/troe/pkg/ngsild/types/entities"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TemporalClient talks to the temporal entities API of a remote broker
type TemporalClient interface {
	RetrieveTemporalEvolutionOfEntity(ctx context.Context, entityID string, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.RetrieveTemporalEntityResult, error)
	QueryTemporalEvolutionOfEntities(ctx context.Context, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.QueryTemporalEntitiesResult, error)
	UpsertTemporalEvolutionOfEntity(ctx context.Context, entity types.EntityTemporal, headers map[string][]string) (*ngsild.UpsertTemporalEntityResult, error)
	DeleteTemporalEvolutionOfEntity(ctx context.Context, entityID string) (*ngsild.DeleteResult, error)
	DeleteAttributeHistory(ctx context.Context, entityID, attributeName, datasetID string) (*ngsild.DeleteResult, error)
	DeleteAttributeInstance(ctx context.Context, entityID, attributeName, instanceID string) (*ngsild.DeleteResult, error)
}

func Debug(enabled string) func(*troeClient) {
	return func(c *troeClient) {
		c.debug = (enabled == "true")
	}
}

func Tenant(tenant string) func(*troeClient) {
	return func(c *troeClient) {
		c.tenant = tenant
	}
}

// DefaultTenant is never sent in an NGSILD-Tenant header
const DefaultTenant string = "default"

func NewTemporalClient(broker string, options ...func(*troeClient)) TemporalClient {
	c := &troeClient{
		baseURL: broker,
		tenant:  DefaultTenant,
		debug:   false,
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, option := range options {
		option(c)
	}

	return c
}

const (
	TraceAttributeEntityID     string = "entity-id"
	TraceAttributeNGSILDTenant string = "ngsild-tenant"
)

var tracer = otel.Tracer("troe-client")

const temporalEntitiesPath string = "/ngsi-ld/v1/temporal/entities"

type troeClient struct {
	baseURL    string
	tenant     string
	debug      bool
	httpClient http.Client
}

func (c troeClient) RetrieveTemporalEvolutionOfEntity(ctx context.Context, entityID string, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.RetrieveTemporalEntityResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-temporal-entity",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	endpoint := c.baseURL + temporalEntitiesPath + "/" + url.QueryEscape(entityID) + encode(parameters)

	response, responseBody, err := c.callTemporalAPI(ctx, http.MethodGet, endpoint, nil, headers)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusPartialContent {
		err = unexpectedResponse(response, responseBody)
		return nil, err
	}

	result := &ngsild.RetrieveTemporalEntityResult{LastN: -1}

	result.Entity, err = entities.NewTemporalFromJSON(responseBody)
	if err != nil {
		err = fmt.Errorf("failed to parse temporal entity: %s (%w)", err.Error(), errors.ErrBadResponse)
		return nil, err
	}

	if response.StatusCode == http.StatusPartialContent {
		result.Range, result.LastN, err = partialContentRange(response)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (c troeClient) QueryTemporalEvolutionOfEntities(ctx context.Context, headers map[string][]string, parameters ...RequestDecoratorFunc) (*ngsild.QueryTemporalEntitiesResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "query-temporal-entities",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	response, responseBody, err := c.callTemporalAPI(
		ctx, http.MethodGet, c.baseURL+temporalEntitiesPath+encode(parameters), nil, headers,
	)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusPartialContent {
		err = unexpectedResponse(response, responseBody)
		return nil, err
	}

	var found []*entities.TemporalEntityImpl
	err = json.Unmarshal(responseBody, &found)
	if err != nil {
		if c.debug && len(responseBody) < 1000 {
			err = fmt.Errorf("unmarshaling of %s failed with err %s", string(responseBody), err.Error())
		}
		err = fmt.Errorf("%s (%w)", err.Error(), errors.ErrBadResponse)
		return nil, err
	}

	result := &ngsild.QueryTemporalEntitiesResult{
		Entities: make([]types.EntityTemporal, 0, len(found)),
		LastN:    -1,
	}

	for _, e := range found {
		result.Entities = append(result.Entities, e)
	}

	if response.StatusCode == http.StatusPartialContent {
		result.Range, result.LastN, err = partialContentRange(response)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (c troeClient) UpsertTemporalEvolutionOfEntity(ctx context.Context, entity types.EntityTemporal, headers map[string][]string) (*ngsild.UpsertTemporalEntityResult, error) {
	var err error

	entityID := entity.ID()

	ctx, span := tracer.Start(ctx, "upsert-temporal-entity",
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := entity.MarshalJSON()
	if err != nil {
		return nil, err
	}

	if _, ok := headers["Content-Type"]; !ok {
		h := map[string][]string{"Content-Type": {"application/ld+json"}}
		for k, v := range headers {
			h[k] = v
		}
		headers = h
	}

	response, responseBody, err := c.callTemporalAPI(
		ctx, http.MethodPost, c.baseURL+temporalEntitiesPath, bytes.NewBuffer(b), headers,
	)
	if err != nil {
		return nil, err
	}

	switch response.StatusCode {
	case http.StatusNoContent:
		return ngsild.NewUpsertTemporalEntityResult(false, temporalEntitiesPath+"/"+url.PathEscape(entityID)), nil
	case http.StatusCreated:
		location := response.Header.Get("Location")
		if location == "" {
			logging.GetFromContext(ctx).Warn("broker failed to provide a location header with created response", "entityID", entityID)
			location = temporalEntitiesPath + "/" + url.PathEscape(entityID)
		}
		return ngsild.NewUpsertTemporalEntityResult(true, location), nil
	default:
		err = unexpectedResponse(response, responseBody)
		return nil, err
	}
}

func (c troeClient) DeleteTemporalEvolutionOfEntity(ctx context.Context, entityID string) (*ngsild.DeleteResult, error) {
	return c.delete(ctx, "delete-temporal-entity", entityID,
		temporalEntitiesPath+"/"+url.QueryEscape(entityID),
	)
}

func (c troeClient) DeleteAttributeHistory(ctx context.Context, entityID, attributeName, datasetID string) (*ngsild.DeleteResult, error) {
	endpoint := temporalEntitiesPath + "/" + url.QueryEscape(entityID) + "/attrs/" + url.QueryEscape(attributeName)
	if datasetID != "" {
		endpoint += "?datasetId=" + url.QueryEscape(datasetID)
	}

	return c.delete(ctx, "delete-attribute-history", entityID, endpoint)
}

func (c troeClient) DeleteAttributeInstance(ctx context.Context, entityID, attributeName, instanceID string) (*ngsild.DeleteResult, error) {
	return c.delete(ctx, "delete-attribute-instance", entityID,
		temporalEntitiesPath+"/"+url.QueryEscape(entityID)+"/attrs/"+url.QueryEscape(attributeName)+"/"+url.QueryEscape(instanceID),
	)
}

func (c troeClient) delete(ctx context.Context, spanName, entityID, path string) (*ngsild.DeleteResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, spanName,
		trace.WithAttributes(attribute.String(TraceAttributeNGSILDTenant, c.tenant)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	response, responseBody, err := c.callTemporalAPI(ctx, http.MethodDelete, c.baseURL+path, nil, nil)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusNoContent {
		err = unexpectedResponse(response, responseBody)
		return nil, err
	}

	return ngsild.NewDeleteResult(), nil
}

func (c troeClient) callTemporalAPI(ctx context.Context, method, endpoint string, body io.Reader, headers map[string][]string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	if c.tenant != DefaultTenant {
		req.Header.Add("NGSILD-Tenant", c.tenant)
	}

	for header, headerValue := range headers {
		for _, val := range headerValue {
			req.Header.Add(header, val)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	if c.debug {
		if resp.StatusCode == http.StatusPartialContent || resp.StatusCode >= http.StatusBadRequest {
			if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusNotFound {
				reqbytes, _ := httputil.DumpRequest(req, false)
				respbytes, _ := httputil.DumpResponse(resp, false)

				log := logging.GetFromContext(ctx)
				if resp.StatusCode >= http.StatusBadRequest {
					log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
				} else {
					log.Warn("partial response", "request", string(reqbytes), "response", string(respbytes))
				}
			}
		}
	}

	return resp, respBody, nil
}

func encode(parameters []RequestDecoratorFunc) string {
	params := url.Values{}
	for _, rdf := range parameters {
		params = rdf(params)
	}

	if len(params) == 0 {
		return ""
	}

	return "?" + params.Encode()
}

func partialContentRange(response *http.Response) (*temporal.Range, int, error) {
	r, lastN, err := ngsild.ParseContentRange(response.Header.Get("Content-Range"))
	if err != nil {
		return nil, 0, fmt.Errorf("%s (%w)", err.Error(), errors.ErrBadResponse)
	}
	return r, lastN, nil
}

func unexpectedResponse(response *http.Response, responseBody []byte) error {
	contentType := response.Header.Get("Content-Type")
	if response.StatusCode >= http.StatusBadRequest {
		return errors.NewErrorFromProblemReport(response.StatusCode, contentType, responseBody)
	}

	return fmt.Errorf("unexpected response code %d (content-type: %s) (%w)", response.StatusCode, contentType, errors.ErrInternal)
}
