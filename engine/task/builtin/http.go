package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/taskwing/taskwing/engine/core"
	"github.com/taskwing/taskwing/engine/task"
)

const defaultHTTPTimeout = 30 * time.Second

var allowedMethods = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "HEAD": {},
}

// HTTPRequest performs a single HTTP call.
//
// Parameters: url (required), method (default GET), headers (map of
// string), body (any, sent as request body), timeout (duration string,
// default 30s).
type HTTPRequest struct {
	task.Base
	client *resty.Client
}

func NewHTTPRequest(params core.Input) (task.Task, error) {
	return &HTTPRequest{
		Base:   task.NewBase(TaskHTTPRequest, params, "url"),
		client: resty.New(),
	}, nil
}

func (t *HTTPRequest) ValidateParams(ctx context.Context) error {
	if err := t.Base.ValidateParams(ctx); err != nil {
		return err
	}
	method := strings.ToUpper(t.StringParam("method", "GET"))
	if _, ok := allowedMethods[method]; !ok {
		return task.NewValidationError(t.TaskKind, "method")
	}
	if raw := t.StringParam("timeout", ""); raw != "" {
		if _, err := time.ParseDuration(raw); err != nil {
			return task.NewValidationError(t.TaskKind, "timeout")
		}
	}
	return nil
}

func (t *HTTPRequest) Run(ctx context.Context) (core.Output, error) {
	url := t.StringParam("url", "")
	method := strings.ToUpper(t.StringParam("method", "GET"))
	timeout := defaultHTTPTimeout
	if raw := t.StringParam("timeout", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", raw, err)
		}
		timeout = parsed
	}
	t.client.SetTimeout(timeout)
	req := t.client.R().SetContext(ctx)
	for k, v := range t.MapParam("headers") {
		if s, ok := v.(string); ok {
			req.SetHeader(k, s)
		}
	}
	if body, ok := t.Param("body"); ok {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	headers := make(map[string]any, len(resp.Header()))
	for k, vals := range resp.Header() {
		headers[k] = strings.Join(vals, ", ")
	}
	return core.Output{
		"status_code": resp.StatusCode(),
		"status":      resp.Status(),
		"headers":     headers,
		"body":        string(resp.Body()),
		"duration_ms": resp.Time().Milliseconds(),
	}, nil
}
