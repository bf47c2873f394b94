package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roombook/pkg/config"
	"roombook/pkg/contracts"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		JWTSecret:         testSecret,
		JWTIssuer:         "roombook",
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1024,
		ShutdownTimeout:   time.Second,
		Log:               logger.Discard(),
	}
}

func token(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iss": "roombook",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	health := contracts.RouteFunc(func(r *httprouter.Router) {
		r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			_ = httputil.WriteSuccess(w, map[string]string{"status": "ok"})
		})
	})
	api := contracts.RouteFunc(func(r *httprouter.Router) {
		r.GET("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			p, _ := middleware.PrincipalFromContext(r.Context())
			_ = httputil.WriteSuccess(w, map[string]string{"user": p.UserID})
		})
		r.POST("/api/v1/echo", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			_ = httputil.WriteCreated(w, map[string]string{"ok": "yes"})
		})
	})

	a := NewApplication()
	a.SetApp(testConfig(), health, api)
	t.Cleanup(a.stopBackground)
	return a.Handler()
}

func TestHealthSkipsAuthentication(t *testing.T) {
	h := newTestApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("health responses should still carry a request id")
	}
}

func TestAPIRequiresToken(t *testing.T) {
	h := newTestApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "alice"))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alice") {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestAPIRateLimitsPerUser(t *testing.T) {
	h := newTestApp(t)
	alice, bob := token(t, "alice"), token(t, "bob")

	do := func(tok string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	do(alice)
	do(alice)
	if got := do(alice); got != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", got)
	}
	if got := do(bob); got != http.StatusOK {
		t.Errorf("other user status = %d, want 200", got)
	}
}

func TestAPIRejectsWrongContentTypeBeforeAuth(t *testing.T) {
	h := newTestApp(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestShutdownHooksRunInOrder(t *testing.T) {
	a := NewApplication()
	a.SetApp(testConfig(), contracts.RouteFunc(func(*httprouter.Router) {}))

	var order []string
	a.OnShutdown(func() { order = append(order, "publisher") })
	a.OnShutdown(func() { order = append(order, "clients") })
	a.gracefulShutdown()

	if strings.Join(order, ",") != "publisher,clients" {
		t.Errorf("order = %v", order)
	}
}
