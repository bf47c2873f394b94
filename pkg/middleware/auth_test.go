package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "u-1",
		"role": "Member",
		"iss":  "roombook",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthenticate(t *testing.T) {
	log := logger.Discard()

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noSub := validClaims()
	delete(noSub, "sub")

	badRole := validClaims()
	badRole["role"] = "root"

	noExp := validClaims()
	delete(noExp, "exp")

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantRole   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
		{"valid member", "Bearer " + signToken(t, jwt.SigningMethodHS256, validClaims(), testSecret), http.StatusOK, model.RoleMember},
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, validClaims(), "another-secret-another-secret-xx"), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, expired, testSecret), http.StatusUnauthorized, ""},
		{"missing exp", "Bearer " + signToken(t, jwt.SigningMethodHS256, noExp, testSecret), http.StatusUnauthorized, ""},
		{"missing subject", "Bearer " + signToken(t, jwt.SigningMethodHS256, noSub, testSecret), http.StatusUnauthorized, ""},
		{"unknown role", "Bearer " + signToken(t, jwt.SigningMethodHS256, badRole, testSecret), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(testSecret, "roombook", log)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantRole != "" && (got.Role != tt.wantRole || got.UserID != "u-1") {
				t.Errorf("principal = %+v", got)
			}
		})
	}
}

func TestAuthenticate_WrongIssuer(t *testing.T) {
	tok := signToken(t, jwt.SigningMethodHS256, validClaims(), testSecret)
	if _, err := ParsePrincipal(tok, testSecret, "someone-else"); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
	if _, err := ParsePrincipal(tok, testSecret, ""); err != nil {
		t.Fatalf("empty issuer should skip the check, got %v", err)
	}
}

func TestAuthenticate_ErrorBodyHasCode(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Authenticate(testSecret, "", logger.Discard())(http.NotFoundHandler()).ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
