package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Simulations.Inc()
	m.Simulations.Inc()
	m.Validations.WithLabelValues("cpf", "valid").Inc()
	m.StepTransitions.WithLabelValues("next", Outcome(errors.New("gate"))).Inc()

	if got := testutil.ToFloat64(m.Simulations); got != 2 {
		t.Errorf("simulations = %v, expected 2", got)
	}
	if got := testutil.ToFloat64(m.Validations.WithLabelValues("cpf", "valid")); got != 1 {
		t.Errorf("validations = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.StepTransitions.WithLabelValues("next", "rejected")); got != 1 {
		t.Errorf("step transitions = %v, expected 1", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `route="/api/sessions/{id}"`) {
		t.Errorf("expected route pattern label in metrics output:\n%s", body)
	}
	if !strings.Contains(body, `status="418"`) {
		t.Errorf("expected status label in metrics output")
	}
	if strings.Contains(body, "/api/sessions/abc") {
		t.Errorf("raw path must not be used as a label")
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" || Outcome(errors.New("x")) != "rejected" {
		t.Error("unexpected outcome labels")
	}
}
