package tagger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP sends export text to a remote tagger service and reads tagged lines
// back from the response body.
type HTTP struct {
	URL     string
	Timeout time.Duration

	HTTPClient *http.Client
}

// Tag POSTs input as text/plain to h.URL.
func (h *HTTP) Tag(ctx context.Context, input string) (string, error) {
	if h.URL == "" {
		return "", &InvocationError{Tagger: "http", Err: fmt.Errorf("tagger URL required")}
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, strings.NewReader(input))
	if err != nil {
		return "", fmt.Errorf("build tagger request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := h.httpClient().Do(req)
	if err != nil {
		return "", &InvocationError{Tagger: h.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &InvocationError{Tagger: h.URL, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &InvocationError{
			Tagger: h.URL,
			Stderr: strings.TrimSpace(string(body)),
			Err:    fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	return string(body), nil
}

func (h *HTTP) httpClient() *http.Client {
	if h.HTTPClient != nil {
		return h.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
