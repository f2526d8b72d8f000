package routing

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestGateA_RepoAllowlistWellFormed loads the repo's real allowlist and
// checks every route names a known class and at least one method.
func TestGateA_RepoAllowlistWellFormed(t *testing.T) {
	t.Parallel()

	known := map[string]bool{
		string(RouteClassUI): true, string(RouteClassInternalAPI): true,
		string(RouteClassPublicAPI): true, string(RouteClassWebhook): true,
		string(RouteClassAuthn): true, string(RouteClassOps): true,
		string(RouteClassDevOnly): true, string(RouteClassTestOnly): true,
		string(RouteClassStatic): true, string(RouteClassWebsocket): true,
	}

	a, err := LoadAllowlist(repoAllowlistPath(t))
	if err != nil {
		t.Fatal(err)
	}
	for name, ep := range a.Entrypoints {
		if len(ep.Routes) == 0 {
			t.Fatalf("entrypoint %s has no routes", name)
		}
		for _, r := range ep.Routes {
			if !known[r.RouteClass] {
				t.Fatalf("%s %s: unknown route class %q", name, r.Path, r.RouteClass)
			}
			if len(r.Methods) == 0 {
				t.Fatalf("%s %s: no methods", name, r.Path)
			}
		}
	}
}

func repoAllowlistPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join("config", "routing", "allowlist.yaml")
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		path = filepath.Join("..", path)
	}
	t.Fatal("allowlist not found")
	return ""
}

func TestGateB_AllowlistLoadsAndEntrypointsPresent(t *testing.T) {
	t.Parallel()

	_, err := NewClassifier(Allowlist{Version: 1, Entrypoints: map[string]Entrypoint{}}, "server")
	if err == nil {
		t.Fatal("expected error")
	}

	a := Allowlist{
		Version: 1,
		Entrypoints: map[string]Entrypoint{
			"server": {Routes: []Route{{Path: "/health", Methods: []string{"GET"}, RouteClass: "ops"}}},
		},
	}
	_, err = NewClassifier(a, "server")
	if err != nil {
		t.Fatal(err)
	}
}

func TestGateC_JSONOnlyErrorsForAPIAndWebhook(t *testing.T) {
	t.Parallel()

	a := Allowlist{
		Version: 1,
		Entrypoints: map[string]Entrypoint{
			"server": {Routes: []Route{{Path: "/health", Methods: []string{"GET"}, RouteClass: "ops"}}},
		},
	}
	c, err := NewClassifier(a, "server")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRouter(c)

	tests := []struct {
		path string
	}{
		{path: "/iam/api/unknown"},
		{path: "/api/v1/unknown"},
		{path: "/webhooks/foo/unknown"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("path=%s status=%d", tt.path, rec.Code)
		}
		ct := rec.Header().Get("Content-Type")
		if !strings.HasPrefix(ct, "application/json") {
			t.Fatalf("path=%s content-type=%q", tt.path, ct)
		}
	}

	uiReq := httptest.NewRequest(http.MethodGet, "/dashboard/unknown", nil)
	uiRec := httptest.NewRecorder()
	r.ServeHTTP(uiRec, uiReq)
	if uiRec.Code != http.StatusNotFound {
		t.Fatalf("ui status=%d", uiRec.Code)
	}
	if !strings.HasPrefix(uiRec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("ui content-type=%q", uiRec.Header().Get("Content-Type"))
	}

	uiJSONReq := httptest.NewRequest(http.MethodGet, "/dashboard/unknown", nil)
	uiJSONReq.Header.Set("Accept", "application/json")
	uiJSONRec := httptest.NewRecorder()
	r.ServeHTTP(uiJSONRec, uiJSONReq)
	if !strings.HasPrefix(uiJSONRec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("ui json content-type=%q", uiJSONRec.Header().Get("Content-Type"))
	}
}

func TestGateC_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	a := Allowlist{
		Version: 1,
		Entrypoints: map[string]Entrypoint{
			"server": {Routes: []Route{{Path: "/health", Methods: []string{"GET"}, RouteClass: "ops"}}},
		},
	}
	c, err := NewClassifier(a, "server")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRouter(c)
	r.Handle(RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}
}
