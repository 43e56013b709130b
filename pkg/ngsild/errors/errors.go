package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrInternal = fmt.Errorf("internal error")
var ErrNotFound = fmt.Errorf("not found")
var ErrRequest = fmt.Errorf("request error")
var ErrBadResponse = fmt.Errorf("bad response")
var ErrBadRequest = fmt.Errorf("bad request")
var ErrInvalidRequest = fmt.Errorf("invalid request")
var ErrOperationNotSupported = fmt.Errorf("operation not supported")
var ErrStorageFailure = fmt.Errorf("storage failure")
var ErrStorageTimeout = fmt.Errorf("storage timeout")
var ErrStorageConflict = fmt.Errorf("storage conflict")
var ErrUnknownTenant = fmt.Errorf("unknown tenant")

type myError struct {
	msg     string
	targets []error
	cause   error
}

func (m myError) Error() string { return m.msg }
func (m myError) Unwrap() error { return m.cause }

func (m myError) Is(target error) bool {
	for _, t := range m.targets {
		if target == t {
			return true
		}
	}
	return false
}

func NewNotFoundError(msg string) error {
	return &myError{msg: msg, targets: []error{ErrNotFound}}
}

func NewBadRequestDataError(msg string) error {
	return &myError{msg: msg, targets: []error{ErrBadRequest}}
}

func NewInvalidRequestError(msg string) error {
	return &myError{msg: msg, targets: []error{ErrInvalidRequest}}
}

func NewOperationNotSupportedError(msg string) error {
	return &myError{msg: msg, targets: []error{ErrOperationNotSupported}}
}

func NewUnknownTenantError(tenant string) error {
	return &myError{
		msg:     fmt.Sprintf("unknown tenant \"%s\"", tenant),
		targets: []error{ErrUnknownTenant},
	}
}

// NewStorageError classifies a failure reported by a storage backend. A timeout
// matches both ErrStorageTimeout and ErrStorageFailure.
func NewStorageError(msg string, cause error) error {
	return &myError{
		msg:     fmt.Sprintf("%s: %s", msg, cause.Error()),
		targets: []error{ErrStorageFailure},
		cause:   cause,
	}
}

func NewStorageTimeoutError(msg string, cause error) error {
	return &myError{
		msg:     fmt.Sprintf("%s: %s", msg, cause.Error()),
		targets: []error{ErrStorageTimeout, ErrStorageFailure},
		cause:   cause,
	}
}

func NewStorageConflictError(msg string, cause error) error {
	return &myError{
		msg:     fmt.Sprintf("%s: %s", msg, cause.Error()),
		targets: []error{ErrStorageConflict},
		cause:   cause,
	}
}

// NewErrorFromProblemReport turns a problem report returned by a remote
// broker into an error that matches the sentinel errors of this package
func NewErrorFromProblemReport(code int, contentType string, body []byte) error {
	report := &struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}{}

	if err := json.Unmarshal(body, report); err != nil {
		return fmt.Errorf("failed to process problem report (status %d, content-type %s): %s (%w)", code, contentType, err.Error(), ErrBadResponse)
	}

	switch report.Type {
	case "https://uri.etsi.org/ngsi-ld/errors/NonexistentTenant":
		return &myError{msg: report.Detail, targets: []error{ErrUnknownTenant}}
	case "https://uri.etsi.org/ngsi-ld/errors/ResourceNotFound":
		return NewNotFoundError(report.Detail)
	case "https://uri.etsi.org/ngsi-ld/errors/BadRequestData":
		return NewBadRequestDataError(report.Detail)
	case "https://uri.etsi.org/ngsi-ld/errors/InvalidRequest":
		return NewInvalidRequestError(report.Detail)
	case "https://uri.etsi.org/ngsi-ld/errors/OperationNotSupported":
		return NewOperationNotSupportedError(report.Detail)
	case "https://uri.etsi.org/ngsi-ld/errors/AlreadyExists":
		return &myError{msg: report.Detail, targets: []error{ErrStorageConflict}}
	}

	switch code {
	case http.StatusNotFound:
		return NewNotFoundError(report.Detail)
	case http.StatusBadRequest:
		return NewBadRequestDataError(report.Detail)
	case http.StatusServiceUnavailable:
		return &myError{msg: report.Detail, targets: []error{ErrStorageTimeout, ErrStorageFailure}}
	}

	return fmt.Errorf("%s: %s (%w)", report.Title, report.Detail, ErrInternal)
}

//ProblemDetails stores details about a certain problem according to RFC7807
//See https://tools.ietf.org/html/rfc7807
type ProblemDetails interface {
	ContentType() string
	MarshalJSON() ([]byte, error)
	ResponseCode() int
	WriteResponse(w http.ResponseWriter)
}

//ProblemDetailsImpl is an implementation of the ProblemDetails interface
type ProblemDetailsImpl struct {
	typ     string
	title   string
	detail  string
	code    int
	traceID string
}

const (
	//ProblemReportContentType as required by https://tools.ietf.org/html/rfc7807
	ProblemReportContentType string = "application/problem+json"
)

//BadRequestData reports that the request includes input data which does not meet the requirements of the operation
type BadRequestData struct {
	ProblemDetailsImpl
}

//NewBadRequestData creates and returns a new instance of a BadRequestData with the supplied problem detail
func NewBadRequestData(detail, traceID string) *BadRequestData {
	return &BadRequestData{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/BadRequestData",
			title:   "Bad Request Data",
			detail:  detail,
			code:    http.StatusBadRequest,
			traceID: traceID,
		},
	}
}

//ReportNewBadRequestData creates a BadRequestData instance and sends it to the supplied http.ResponseWriter
func ReportNewBadRequestData(w http.ResponseWriter, detail, traceID string) {
	brd := NewBadRequestData(detail, traceID)
	brd.WriteResponse(w)
}

//InvalidRequest reports that the request associated to the operation is syntactically
//invalid or includes wrong content
type InvalidRequest struct {
	ProblemDetailsImpl
}

//NewInvalidRequest creates and returns a new instance of an InvalidRequest with the supplied problem detail
func NewInvalidRequest(detail, traceID string) *InvalidRequest {
	return &InvalidRequest{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/InvalidRequest",
			title:   "Invalid Request",
			detail:  detail,
			code:    http.StatusBadRequest,
			traceID: traceID,
		},
	}
}

//ReportNewInvalidRequest creates an InvalidRequest instance and sends it to the supplied http.ResponseWriter
func ReportNewInvalidRequest(w http.ResponseWriter, detail, traceID string) {
	ir := NewInvalidRequest(detail, traceID)
	ir.WriteResponse(w)
}

//OperationNotSupported reports that the requested operation cannot be applied to the data at hand
type OperationNotSupported struct {
	ProblemDetailsImpl
}

func NewOperationNotSupported(detail, traceID string) *OperationNotSupported {
	return &OperationNotSupported{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/OperationNotSupported",
			title:   "Operation Not Supported",
			detail:  detail,
			code:    http.StatusUnprocessableEntity,
			traceID: traceID,
		},
	}
}

func ReportOperationNotSupported(w http.ResponseWriter, detail, traceID string) {
	ons := NewOperationNotSupported(detail, traceID)
	ons.WriteResponse(w)
}

//InternalError reports that there has been an error during the operation execution
type InternalError struct {
	ProblemDetailsImpl
}

func (ie InternalError) Error() string {
	return ie.detail
}

//NewInternalError creates and returns a new instance of an InternalError with the supplied problem detail
func NewInternalError(detail, traceID string) *InternalError {
	return &InternalError{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/InternalError",
			title:   "Internal Error",
			detail:  detail,
			code:    http.StatusInternalServerError,
			traceID: traceID,
		},
	}
}

//ReportNewInternalError creates an InternalError instance and sends it to the supplied http.ResponseWriter
func ReportNewInternalError(w http.ResponseWriter, detail, traceID string) {
	ie := NewInternalError(detail, traceID)
	ie.WriteResponse(w)
}

//NotFound reports that the request failed with a not found error of some kind
type NotFound struct {
	ProblemDetailsImpl
}

//NewNotFound creates and returns a new instance of a NotFound with the supplied problem detail
func NewNotFound(detail, traceID string) *NotFound {
	return &NotFound{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/ResourceNotFound",
			title:   "Not Found",
			detail:  detail,
			code:    http.StatusNotFound,
			traceID: traceID,
		},
	}
}

//ReportNotFoundError creates a NotFound instance and sends it to the supplied http.ResponseWriter
func ReportNotFoundError(w http.ResponseWriter, detail, traceID string) {
	nf := NewNotFound(detail, traceID)
	nf.WriteResponse(w)
}

type Conflict struct {
	ProblemDetailsImpl
}

func NewConflict(detail, traceID string) *Conflict {
	return &Conflict{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/AlreadyExists",
			title:   "Conflict",
			detail:  detail,
			code:    http.StatusConflict,
			traceID: traceID,
		},
	}
}

//ServiceUnavailable reports that the storage layer did not answer in time
type ServiceUnavailable struct {
	ProblemDetailsImpl
}

func NewServiceUnavailable(detail, traceID string) *ServiceUnavailable {
	return &ServiceUnavailable{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/InternalError",
			title:   "Service Unavailable",
			detail:  detail,
			code:    http.StatusServiceUnavailable,
			traceID: traceID,
		},
	}
}

//UnknownTenant reports that the request tries to interact with an unknown tenant
type UnknownTenant struct {
	ProblemDetailsImpl
}

//NewUnknownTenant creates and returns a new instance of an UnknownTenant with the supplied problem detail
func NewUnknownTenant(detail, traceID string) *UnknownTenant {
	return &UnknownTenant{
		ProblemDetailsImpl: ProblemDetailsImpl{
			typ:     "https://uri.etsi.org/ngsi-ld/errors/NonexistentTenant",
			title:   "Non Existent Tenant",
			detail:  detail,
			code:    http.StatusNotFound,
			traceID: traceID,
		},
	}
}

// ProblemFromError maps an error from the application layer to the problem
// report that should be returned to the client
func ProblemFromError(err error, traceID string) ProblemDetails {
	switch {
	case errors.Is(err, ErrNotFound):
		return NewNotFound(err.Error(), traceID)
	case errors.Is(err, ErrUnknownTenant):
		return NewUnknownTenant(err.Error(), traceID)
	case errors.Is(err, ErrBadRequest):
		return NewBadRequestData(err.Error(), traceID)
	case errors.Is(err, ErrInvalidRequest):
		return NewInvalidRequest(err.Error(), traceID)
	case errors.Is(err, ErrOperationNotSupported):
		return NewOperationNotSupported(err.Error(), traceID)
	case errors.Is(err, ErrStorageConflict):
		return NewConflict(err.Error(), traceID)
	case errors.Is(err, ErrStorageTimeout):
		return NewServiceUnavailable(err.Error(), traceID)
	default:
		return NewInternalError(err.Error(), traceID)
	}
}

// ReportError writes the problem report matching err to the supplied http.ResponseWriter
func ReportError(w http.ResponseWriter, err error, traceID string) {
	ProblemFromError(err, traceID).WriteResponse(w)
}

//ContentType returns the ContentType to be used when returning this problem
func (p *ProblemDetailsImpl) ContentType() string {
	return ProblemReportContentType
}

//MarshalJSON is called when a ProblemDetailsImpl instance should be serialized to JSON
func (p *ProblemDetailsImpl) MarshalJSON() ([]byte, error) {
	var traceID *string

	if p.traceID != "" {
		traceID = &p.traceID
	}

	j, err := json.Marshal(struct {
		Type    string  `json:"type"`
		Title   string  `json:"title"`
		Detail  string  `json:"detail"`
		TraceID *string `json:"traceID,omitempty"`
	}{
		Type:    p.typ,
		Title:   p.title,
		Detail:  p.detail,
		TraceID: traceID,
	})
	if err != nil {
		return nil, err
	}

	return j, nil
}

//ResponseCode returns the HTTP response code to be used when returning a specific problem
func (p *ProblemDetailsImpl) ResponseCode() int {

	if p.code != 0 {
		return p.code
	}

	return http.StatusBadRequest
}

//WriteResponse writes the contents of this instance to a http.ResponseWriter
func (p *ProblemDetailsImpl) WriteResponse(w http.ResponseWriter) {
	w.Header().Add("Content-Type", p.ContentType())
	w.Header().Add("Content-Language", "en")
	w.WriteHeader(p.ResponseCode())

	pdbytes, err := json.MarshalIndent(p, "", "  ")
	if err == nil {
		w.Write(pdbytes)
	}
}
