// internal/backends/http.go
package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/metron/internal/logging"
)

// NewHTTPClient returns a client whose connection pool matches a run's
// concurrency limit, so one pooled transport serves every in-flight request
// of that run.
func NewHTTPClient(timeout time.Duration, concurrency int) *http.Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			ForceAttemptHTTP2:   false,
			MaxIdleConns:        concurrency,
			MaxIdleConnsPerHost: concurrency,
			MaxConnsPerHost:     concurrency,
		},
	}
}

// PostJSON issues one buffered JSON POST and decodes the body into a map.
// Connection faults and non-2xx statuses come back as TransientError;
// undecodable bodies as MalformedResponseError.
func PostJSON(ctx context.Context, client *http.Client, url string, payload any, apiKey string) (map[string]any, error) {
	resp, err := post(ctx, client, url, payload, apiKey, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Op: "POST " + url, Err: err}
	}
	logging.LogRequest("LLM->METRON", url, "", raw)

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &MalformedResponseError{Op: "POST " + url, Err: err}
	}
	return body, nil
}

// PostStream issues one streaming JSON POST and hands back the response
// body for the stream scanner. The caller owns closing it.
func PostStream(ctx context.Context, client *http.Client, url string, payload any, apiKey string) (io.ReadCloser, error) {
	resp, err := post(ctx, client, url, payload, apiKey, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func post(ctx context.Context, client *http.Client, url string, payload any, apiKey string, stream bool) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	logging.LogRequest("METRON->LLM", url, "", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "POST " + url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		logging.LogRequest("LLM->METRON", url, "", raw)
		return nil, &TransientError{
			Op:     "POST " + url,
			Status: resp.StatusCode,
			Err:    errorFromBody(resp.Status, raw),
		}
	}
	return resp, nil
}

func errorFromBody(status string, raw []byte) error {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return errors.New(status)
	}
	return errors.New(status + ": " + text)
}
