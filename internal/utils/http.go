package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leofalp/finchat/providers/observability"
)

// maxResponseBodySize caps how much of a response body is read into memory.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// HeaderOption is an extra request header.
type HeaderOption struct {
	Key   string
	Value string
}

// Header builds a HeaderOption.
func Header(key, value string) HeaderOption {
	return HeaderOption{Key: key, Value: value}
}

// StatusError is returned when a server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(e.Body, DefaultMaxStringLength))
}

// DoPostJSON sends body as JSON to url and decodes the JSON reply into
// OutputStruct. apiKey, when set, is sent as a bearer token. HTTP details are
// recorded as events on the span carried by ctx, if any.
func DoPostJSON[OutputStruct any](ctx context.Context, client *http.Client, url, apiKey string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	applyHeaders(req, headers)

	return doJSON[OutputStruct](ctx, client, req, len(jsonBody))
}

// DoGetJSON performs a GET on url and decodes the JSON reply into OutputStruct.
func DoGetJSON[OutputStruct any](ctx context.Context, client *http.Client, url string, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	applyHeaders(req, headers)

	return doJSON[OutputStruct](ctx, client, req, 0)
}

// DoGetBody performs a GET on url and returns the raw body, capped at 10 MB.
func DoGetBody(ctx context.Context, client *http.Client, url string, headers ...HeaderOption) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	applyHeaders(req, headers)

	res, respBody, err := send(ctx, client, req, 0)
	if err != nil {
		return res, nil, err
	}
	return res, respBody, nil
}

func doJSON[OutputStruct any](ctx context.Context, client *http.Client, req *http.Request, requestSize int) (*http.Response, *OutputStruct, error) {
	res, respBody, err := send(ctx, client, req, requestSize)
	if err != nil {
		return res, nil, err
	}

	var out OutputStruct
	if err := json.Unmarshal(respBody, &out); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s",
			res.StatusCode, err, TruncateString(string(respBody), DefaultMaxStringLength))
	}
	return res, &out, nil
}

// send executes req, reads the body and turns non-2xx replies into a *StatusError.
func send(ctx context.Context, client *http.Client, req *http.Request, requestSize int) (*http.Response, []byte, error) {
	span := observability.SpanFromContext(ctx)
	if client == nil {
		client = http.DefaultClient
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, req.Method),
			observability.String(observability.AttrHTTPURL, req.URL.String()),
			observability.Int(observability.AttrHTTPRequestBodySize, requestSize),
		)
	}

	start := time.Now()
	res, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration(observability.AttrHTTPDuration, elapsed),
			)
		}
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration(observability.AttrHTTPDuration, elapsed),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, &StatusError{StatusCode: res.StatusCode, Body: string(respBody)}
	}
	return res, respBody, nil
}

func applyHeaders(req *http.Request, headers []HeaderOption) {
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}
}
