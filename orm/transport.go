package orm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mickamy/restorm/orm"

// Handler executes HTTP requests. *http.Client satisfies it.
type Handler interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the last response seen by a Transport.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes RequestSpecs against the Connection's handler and
// decodes JSON bodies. It never retries.
type Transport struct {
	conn *Connection

	mu   sync.Mutex
	last *Response
}

// LastResponse returns the most recent response, or nil before the first
// request.
func (t *Transport) LastResponse() *Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Execute sends spec and returns the decoded JSON value, or the raw body
// bytes when raw is set or the response is not JSON.
func (t *Transport) Execute(ctx context.Context, spec RequestSpec, raw bool) (any, error) {
	resp, err := t.do(ctx, spec)
	if err != nil {
		return nil, err
	}
	if raw || !isJSON(resp.Header) {
		return resp.Body, nil
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("orm: decode %s %s: %w", spec.Method, spec.URL, err)
	}
	return decoded, nil
}

// Head sends a HEAD request and returns the response headers.
func (t *Transport) Head(ctx context.Context, u string) (http.Header, error) {
	resp, err := t.do(ctx, RequestSpec{Method: http.MethodHead, URL: u})
	if err != nil {
		return nil, err
	}
	return resp.Header, nil
}

func (t *Transport) do(ctx context.Context, spec RequestSpec) (*Response, error) {
	method := strings.ToUpper(spec.Method)
	requestID := uuid.NewString()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "restorm.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", spec.URL),
			attribute.String("restorm.request_id", requestID),
		),
	)
	defer span.End()

	body, contentType, err := encodeBody(spec.Body)
	if err != nil {
		return nil, fmt.Errorf("orm: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, spec.URL, body)
	if err != nil {
		return nil, fmt.Errorf("orm: new request: %w", err)
	}
	for k, v := range t.conn.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	clock := clockFrom(ctx)
	start := clock.Now()
	httpResp, err := t.conn.handler().Do(req)
	elapsed := clock.Now().Sub(start)
	if err != nil {
		terr := &TransportError{Method: method, URL: spec.URL, Code: ErrCodeConnection, Err: err}
		if ctx.Err() != nil {
			terr.Code = ErrCodeTimeout
		}
		t.observe(ctx, span, method, spec.URL, requestID, 0, elapsed, terr)
		return nil, terr
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		terr := &TransportError{Method: method, URL: spec.URL, StatusCode: httpResp.StatusCode, Code: ErrCodeConnection, Err: err}
		t.observe(ctx, span, method, spec.URL, requestID, httpResp.StatusCode, elapsed, terr)
		return nil, terr
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}
	t.mu.Lock()
	t.last = resp
	t.mu.Unlock()

	if terr := classifyStatus(method, spec.URL, httpResp.StatusCode, data); terr != nil {
		t.observe(ctx, span, method, spec.URL, requestID, httpResp.StatusCode, elapsed, terr)
		return resp, terr
	}
	t.observe(ctx, span, method, spec.URL, requestID, httpResp.StatusCode, elapsed, nil)
	return resp, nil
}

func (t *Transport) observe(
	_ context.Context, span trace.Span, method, u, requestID string, status int, elapsed time.Duration, err error,
) {
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if m := t.conn.metrics; m != nil {
		m.observeRequest(method, status, elapsed)
	}

	if err != nil {
		t.conn.logger.Warn().
			Err(err).
			Str("method", method).
			Str("url", u).
			Int("status", status).
			Dur("duration", elapsed).
			Str("request_id", requestID).
			Msg("request failed")
		return
	}
	t.conn.logger.Debug().
		Str("method", method).
		Str("url", u).
		Int("status", status).
		Dur("duration", elapsed).
		Str("request_id", requestID).
		Msg("request")
}

// encodeBody sends mappings as form parameters and everything else as a
// raw payload. Values that are neither are JSON-encoded.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	if m, ok := asMap(body); ok {
		return strings.NewReader(encodeParams(m)), "application/x-www-form-urlencoded", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func isJSON(h http.Header) bool {
	for k, vs := range h {
		if !strings.EqualFold(k, "Content-Type") {
			continue
		}
		for _, v := range vs {
			if strings.Contains(strings.ToLower(v), "application/json") {
				return true
			}
		}
	}
	return false
}

// totalCount parses the count header of a HEAD response.
func totalCount(h http.Header, name string) (int64, bool) {
	v := h.Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
