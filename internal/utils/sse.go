package utils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/finchat/providers/observability"
)

// maxSSELineSize bounds a single SSE line. Tool-call arguments can exceed the
// bufio.Scanner default of 64 KiB.
const maxSSELineSize = 1024 * 1024

// DoPostStream sends body as JSON and returns the response with its body
// still open for SSE reading. The caller closes the body. On a non-2xx status
// the body is drained, closed and reported as a *StatusError.
func DoPostStream(ctx context.Context, client *http.Client, url, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)
	if client == nil {
		client = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	applyHeaders(req, headers)

	if span != nil {
		span.AddEvent("http.stream_request.prepared",
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return res, fmt.Errorf("error sending stream request: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer CloseWithLog(res.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
		if readErr != nil {
			return res, fmt.Errorf("non-2xx status %d (failed to read body: %w)", res.StatusCode, readErr)
		}
		return res, &StatusError{StatusCode: res.StatusCode, Body: string(errorBody)}
	}

	if span != nil {
		span.AddEvent("http.stream_response.started",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Duration(observability.AttrHTTPDuration, time.Since(start)),
		)
	}
	return res, nil
}

// SSEScanner yields the data payloads of a Server-Sent Events stream.
// Comments and non-data fields are skipped; consecutive data lines of one
// event are joined with "\n". The "[DONE]" sentinel ends the stream.
type SSEScanner struct {
	scanner *bufio.Scanner
	done    bool
}

func NewSSEScanner(reader io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{scanner: scanner}
}

// Next returns the next payload, or io.EOF once the stream is exhausted.
func (s *SSEScanner) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	var dataLines []string
	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}
		dataLines = append(dataLines, data)
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("SSE scanner error: %w", err)
	}
	s.done = true
	if len(dataLines) > 0 {
		return strings.Join(dataLines, "\n"), nil
	}
	return "", io.EOF
}
