package axon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"minerd/internal/miner"
)

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 200: "200", 404: "404", 503: "503"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Fatalf("itoa(%d)=%q", n, got)
		}
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	called := false
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if !called || w.Code != http.StatusTeapot {
		t.Fatalf("called=%v code=%d", called, w.Code)
	}
}

func TestRoutePatternFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/some/path", nil)
	if p := routePatternOrPath(r); p != "/some/path" {
		t.Fatalf("p=%q", p)
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	s := New(miner.Handlers{ForwardEmbed: func(ctx context.Context, text []string) ([][]float32, error) {
		return nil, nil
	}}, Options{})
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "minerd_http_requests_total") {
		t.Fatal("expected minerd_http metrics in output")
	}
}
