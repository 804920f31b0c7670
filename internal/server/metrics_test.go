package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// gatherCounter returns the value of the named counter with the given label,
// or -1 when absent.
func gatherCounter(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return -1
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{}, &fakeIngester{}, &fakeCatalog{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("want 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

func Test_Metrics_AskOutcomeCounted(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	s, err := New(&fakeAsker{}, &fakeIngester{}, &fakeCatalog{}, &Config{}, reg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(s.stopRL)

	w := postJSON(t, s.httpServer.Handler, "/api/qa/ask", askRequest{Question: "q?"})
	if w.Code != http.StatusOK {
		t.Fatalf("ask failed: %d", w.Code)
	}

	if got := gatherCounter(t, reg, "docqa_qa_requests_total", "outcome", "ok"); got != 1 {
		t.Errorf("want docqa_qa_requests_total{outcome=\"ok\"}=1, got %v", got)
	}
}

func Test_Metrics_HTTPRequestsCountedPerHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	s, err := New(&fakeAsker{}, &fakeIngester{}, &fakeCatalog{}, &Config{}, reg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(s.stopRL)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.httpServer.Handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := gatherCounter(t, reg, "docqa_http_requests_total", "handler", "health"); got != 1 {
		t.Errorf("want docqa_http_requests_total{handler=\"health\"}=1, got %v", got)
	}
}
