package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/open-policy-agent/opa/rego"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("troe/ngsi-ld/authz")

type Enticator interface {
	CheckAccess(ctx context.Context, r *http.Request, tenant string, entityIDs []string) error
}

type enticatorImpl struct {
	preparedQuery rego.PreparedEvalQuery
}

func NewAuthenticator(ctx context.Context, policies io.Reader) (Enticator, error) {

	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	impl := &enticatorImpl{}

	impl.preparedQuery, err = rego.New(
		rego.Query("x = data.example.authz.allow"),
		rego.Module("example.rego", string(module)),
	).PrepareForEval(ctx)

	if err != nil {
		return nil, err
	}

	return impl, nil
}

// CheckAccess evaluates the policy against the method, path, bearer token and
// tenant of the request. The ids of the entities whose history is requested
// are passed to the policy as "entities".
func (e *enticatorImpl) CheckAccess(ctx context.Context, r *http.Request, tenant string, entityIDs []string) error {
	var err error

	ctx, span := tracer.Start(ctx, "check-auth", trace.WithAttributes(attribute.String("ngsild.tenant", tenant)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	token := r.Header.Get("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")

	path := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")

	if entityIDs == nil {
		entityIDs = []string{}
	}

	input := map[string]any{
		"method":   r.Method,
		"path":     path,
		"token":    token,
		"tenant":   tenant,
		"entities": entityIDs,
	}

	results, err := e.preparedQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		err = fmt.Errorf("opa eval failed: %w", err)
		return err
	}

	if len(results) == 0 {
		err = fmt.Errorf("auth failed: opa query could not be satisfied")
		return err
	}

	binding := results[0].Bindings["x"]

	// a denied request yields a single bool
	allowed, ok := binding.(bool)
	if ok && !allowed {
		err = errors.New("authorization failed")
		return err
	}

	if _, ok = binding.(map[string]any); !ok {
		err = errors.New("opa error: unexpected result type")
		return err
	}

	return nil
}
