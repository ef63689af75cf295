package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newHandler(log.New(io.Discard), ""))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestRenderSVGOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/render?format=svg", "application/yaml",
		strings.NewReader(validDoc))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "A10 specification") {
		t.Error("rendered SVG missing row label")
	}
}

func TestRenderKeepsClientRequestID(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}
}

func TestRenderRejectsBadFormat(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/render?format=png", "application/yaml",
		strings.NewReader(validDoc))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRenderRejectsInvalidDocument(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/render?format=json", "application/yaml",
		strings.NewReader("project: [unclosed"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("error content type = %q", ct)
	}
}

func TestRenderFlagsPartialResults(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/render?format=json", "application/yaml",
		strings.NewReader(brokenDoc))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a partial render", resp.StatusCode)
	}
	if resp.Header.Get("X-Unresolved-Rows") != "true" {
		t.Error("missing X-Unresolved-Rows header")
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"fine"`) {
		t.Error("partial JSON missing the resolved row")
	}
}
