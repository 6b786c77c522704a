package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cognicore/ingredients/internal/logging"
	"github.com/cognicore/ingredients/pkg/ingredients"
	"github.com/cognicore/ingredients/pkg/ingredients/tagger"
)

// toolResult mirrors the CallToolResult wire shape for decoding.
type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func newTestServer(t *testing.T, tg tagger.Tagger) *httptest.Server {
	t.Helper()
	p, err := ingredients.New(ingredients.Options{Tagger: tg, Logger: logging.Discard(), Workers: 2})
	if err != nil {
		t.Fatalf("ingredients.New: %v", err)
	}
	srv := httptest.NewServer(New(p, "", logging.Discard()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func callTool(t *testing.T, srv *httptest.Server, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func decodeText(t *testing.T, body string, target any) {
	t.Helper()
	var res toolResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("decode result %q: %v", body, err)
	}
	if len(res.Content) != 1 || res.Content[0].Type != "text" {
		t.Fatalf("unexpected content %+v", res.Content)
	}
	if err := json.Unmarshal([]byte(res.Content[0].Text), target); err != nil {
		t.Fatalf("decode payload %q: %v", res.Content[0].Text, err)
	}
}

func TestParseIngredientTool(t *testing.T) {
	srv := newTestServer(t, tagger.NewRules(nil))

	resp, body := callTool(t, srv, `{"name":"parse_ingredient","arguments":{"line":"2 cups flour, sifted"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var ing ingredients.Ingredient
	decodeText(t, body, &ing)
	if ing.Name != "flour" || ing.Unit != "cup" || ing.Quantity != 2 || ing.Comment != ", sifted" {
		t.Fatalf("unexpected ingredient %+v", ing)
	}
}

func TestParseIngredientsTool(t *testing.T) {
	srv := newTestServer(t, tagger.NewRules(nil))

	resp, body := callTool(t, srv, `{"name":"parse_ingredients","arguments":{"lines":["1 teaspoon salt","  ","3 eggs"]}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}

	var batch BatchResult
	decodeText(t, body, &batch)
	if len(batch.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(batch.Results))
	}
	if batch.Results[0].Name != "salt" || batch.Results[1] != nil || batch.Results[2].Name != "eggs" {
		t.Fatalf("unexpected results %+v", batch.Results)
	}
	if len(batch.Errors) != 1 || !strings.Contains(batch.Errors[0], "line 2") {
		t.Fatalf("unexpected errors %v", batch.Errors)
	}
}

func TestToolErrors(t *testing.T) {
	failing := tagger.Func(func(ctx context.Context, input string) (string, error) {
		return "", &tagger.InvocationError{Tagger: "crf_test", Err: errors.New("exit status 1")}
	})

	cases := []struct {
		name   string
		tagger tagger.Tagger
		body   string
		status int
	}{
		{"bad json", tagger.NewRules(nil), `{"name":`, http.StatusBadRequest},
		{"unknown tool", tagger.NewRules(nil), `{"name":"bake","arguments":{}}`, http.StatusNotFound},
		{"missing line", tagger.NewRules(nil), `{"name":"parse_ingredient","arguments":{}}`, http.StatusBadRequest},
		{"wrong type", tagger.NewRules(nil), `{"name":"parse_ingredients","arguments":{"lines":"salt"}}`, http.StatusBadRequest},
		{"no blocks", tagger.NewRules(nil), `{"name":"parse_ingredient","arguments":{"line":"<br>"}}`, http.StatusUnprocessableEntity},
		{"tagger down", failing, `{"name":"parse_ingredient","arguments":{"line":"salt"}}`, http.StatusBadGateway},
		{"batch all failed", failing, `{"name":"parse_ingredients","arguments":{"lines":["salt"]}}`, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.tagger)
			resp, body := callTool(t, srv, tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.StatusCode, body)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, tagger.NewRules(nil))
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, tagger.NewRules(nil))
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", resp.StatusCode, body)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	p, err := ingredients.New(ingredients.Options{Tagger: tagger.NewRules(nil), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("ingredients.New: %v", err)
	}
	s := New(p, "127.0.0.1:0", logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
}
