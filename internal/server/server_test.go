package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/mdtoc/internal/config"
	"github.com/jackzampolin/mdtoc/internal/format"
	"github.com/jackzampolin/mdtoc/internal/server/endpoints"
	"github.com/jackzampolin/mdtoc/internal/testutil"
)

const doc = "<!-- mdformat-toc start -->\n\n# Hello\n\n## World\n"

const formatted = "<!-- mdformat-toc start --slug=github --maxlevel=6 --minlevel=1 -->\n" +
	"\n" +
	"- [Hello](<#hello>)\n" +
	"  - [World](<#world>)\n" +
	"\n" +
	"<!-- mdformat-toc end -->\n" +
	"\n" +
	"# Hello<a name=\"#hello\"></a>\n" +
	"\n" +
	"## World<a name=\"#world\"></a>\n"

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = testutil.Logger(t)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var health endpoints.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("health.Status = %q, want %q", health.Status, "ok")
	}
}

func TestServer_Format(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		name        string
		markdown    string
		wantOutput  string
		wantChanged bool
	}{
		{"adds toc", doc, formatted, true},
		{"already formatted", formatted, formatted, false},
		{"no directive", "# Plain\n", "# Plain\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/format", endpoints.FormatRequest{Markdown: tt.markdown})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			var got endpoints.FormatResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if got.Markdown != tt.wantOutput {
				t.Errorf("markdown =\n%s\nwant\n%s", got.Markdown, tt.wantOutput)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestServer_Headings(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	src := "<!-- mdformat-toc start --minlevel=2 -->\n\n# Top\n\n## Usage\n\n## Usage\n"
	resp := postJSON(t, ts.URL+"/headings", endpoints.HeadingsRequest{Markdown: src})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var outline format.Outline
	if err := json.NewDecoder(resp.Body).Decode(&outline); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if outline.Directives != 1 || outline.Options.MinLevel != 2 {
		t.Errorf("unexpected outline header %+v", outline)
	}

	want := []format.OutlineEntry{
		{Level: 1, Text: "Top", Slug: "top", Depth: -1},
		{Level: 2, Text: "Usage", Slug: "usage", Depth: 0, InTOC: true},
		{Level: 2, Text: "Usage", Slug: "usage-1", Depth: 0, InTOC: true},
	}
	if len(outline.Headings) != len(want) {
		t.Fatalf("got %d headings, want %d", len(outline.Headings), len(want))
	}
	for i, h := range outline.Headings {
		if h != want[i] {
			t.Errorf("heading %d = %+v, want %+v", i, h, want[i])
		}
	}
}

func TestServer_BadRequests(t *testing.T) {
	srv, ts := newTestServer(t, Config{})

	t.Run("invalid json", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/format", "application/json", strings.NewReader("{"))
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
		var errResp endpoints.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			t.Errorf("expected error body, got %+v (%v)", errResp, err)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		big, err := json.Marshal(endpoints.HeadingsRequest{Markdown: strings.Repeat("a", endpoints.MaxBodyBytes+1)})
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/headings", bytes.NewReader(big)))
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/format")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
		}
	})
}

func TestServer_RateLimit(t *testing.T) {
	// 60 per minute allows a burst of 6 and refills once a second
	srv, err := New(Config{RateLimit: 60, Logger: testutil.Logger(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	handler := srv.Handler()

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 6; i++ {
		if code := get("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, code, http.StatusOK)
		}
	}
	limited := false
	for i := 0; i < 10; i++ {
		if get("10.0.0.1") == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected client to be rate limited")
	}
	if code := get("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client status = %d, want %d", code, http.StatusOK)
	}
}

func TestNew_InvalidRateLimit(t *testing.T) {
	if _, err := New(Config{RateLimit: -1}); err == nil {
		t.Error("expected error for negative rate limit")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "127.0.0.1:999", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "127.0.0.1:999", "5.6.7.8"},
		{"remote addr", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote without port", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServer_Lifecycle(t *testing.T) {
	srv, err := New(Config{Port: "0", Logger: testutil.Logger(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	starter := testutil.StartServer{Cancel: cancel}
	t.Cleanup(starter.Stop)

	deadline := time.Now().Add(5 * time.Second)
	for !srv.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !srv.IsRunning() {
		t.Fatal("server did not start")
	}
	if strings.HasSuffix(srv.Addr(), ":0") {
		t.Fatalf("Addr() = %s, want bound port", srv.Addr())
	}

	url := "http://" + srv.Addr()
	if err := testutil.WaitForServer(url, 5*time.Second); err != nil {
		t.Fatalf("server not ready: %v", err)
	}

	if err := srv.Start(ctx); err == nil {
		t.Error("expected error starting a running server")
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("Start() returned %v", err)
	}
	if srv.IsRunning() {
		t.Error("server still running after shutdown")
	}
}

func TestServer_StartPortInUse(t *testing.T) {
	first, err := New(Config{Port: "0", Logger: testutil.Logger(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for !first.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	_, port, _ := strings.Cut(first.Addr(), "127.0.0.1:")

	second, err := New(Config{Port: port, Logger: testutil.Logger(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Error("expected error when port is in use")
	}
	if second.IsRunning() {
		t.Error("failed server reports running")
	}
}

func TestServer_ConfigReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("toc:\n  permalink_symbol: \"\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	srv, ts := newTestServer(t, Config{ConfigManager: mgr})

	resp, err := http.Get(ts.URL + "/config")
	if err != nil {
		t.Fatalf("GET /config failed: %v", err)
	}
	var cfgResp endpoints.ConfigResponse
	err = json.NewDecoder(resp.Body).Decode(&cfgResp)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if cfgResp.File != path || cfgResp.Config.Server.Port != "8080" {
		t.Errorf("unexpected config response %+v", cfgResp)
	}

	mgr.WatchConfig()
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("toc:\n  permalink_symbol: \"¶\"\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	want := "# A<a name=\"#a\">¶</a>\n"
	deadline := time.Now().Add(2 * time.Second)
	var got string
	for time.Now().Before(deadline) {
		got, err = srv.Formatter().Text([]byte("<!-- mdformat-toc start -->\n\n# A\n"))
		if err != nil {
			t.Fatalf("Text() error = %v", err)
		}
		if strings.HasSuffix(got, want) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("formatter not reloaded, output:\n%s", got)
}
