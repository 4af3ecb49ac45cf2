package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(m *Metrics) string {
	handler := m.Handler()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	return w.Body.String()
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := New()

	m.RecordRequest("GET", "/api/v1/posts", 200, 100*time.Millisecond)
	m.RecordRequest("GET", "/api/v1/posts", 200, 150*time.Millisecond)
	m.RecordRequest("GET", "/api/v1/posts", 500, 50*time.Millisecond)

	body := scrape(m)

	if !strings.Contains(body, "elice_http_requests_total") {
		t.Error("expected elice_http_requests_total metric")
	}
	if !strings.Contains(body, "elice_http_request_duration_seconds") {
		t.Error("expected elice_http_request_duration_seconds metric")
	}
	if !strings.Contains(body, `elice_http_errors_total{endpoint="/api/v1/posts",method="GET",status_class="5xx"} 1`) {
		t.Errorf("expected one 5xx error, got:\n%s", body)
	}
}

func TestMetrics_Uptime(t *testing.T) {
	m := New()

	// Wait a bit to ensure uptime is > 0
	time.Sleep(10 * time.Millisecond)

	body := scrape(m)

	if !strings.Contains(body, "elice_uptime_seconds") {
		t.Error("expected elice_uptime_seconds metric")
	}
}

func TestMetrics_EndpointNormalization(t *testing.T) {
	m := New()

	// These should be normalized to the same endpoint
	m.RecordRequest("GET", "/api/v1/posts/123e4567-e89b-12d3-a456-426614174000", 200, 10*time.Millisecond)
	m.RecordRequest("GET", "/api/v1/posts/550e8400-e29b-41d4-a716-446655440000", 200, 10*time.Millisecond)

	body := scrape(m)

	// Should have normalized the UUID to {id}
	if !strings.Contains(body, "/api/v1/posts/{id}") {
		t.Errorf("expected normalized endpoint /api/v1/posts/{id}, got:\n%s", body)
	}
	if strings.Contains(body, "123e4567") {
		t.Error("raw post id leaked into metric labels")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := New()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	wrappedHandler := Middleware(m)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	body := scrape(m)

	if !strings.Contains(body, "/api/v1/test") {
		t.Errorf("expected endpoint /api/v1/test in metrics, got:\n%s", body)
	}
}

func TestMetrics_CustomCounter(t *testing.T) {
	m := New()

	m.IncCounter("login_success")
	m.IncCounter("login_success")
	m.IncCounter("login_failure")

	body := scrape(m)

	if !strings.Contains(body, `elice_counter{name="login_success"} 2`) {
		t.Errorf("expected login_success counter = 2, got:\n%s", body)
	}
	if !strings.Contains(body, `elice_counter{name="login_failure"} 1`) {
		t.Errorf("expected login_failure counter = 1, got:\n%s", body)
	}
}
