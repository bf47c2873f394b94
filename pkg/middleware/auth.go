package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	return p, ok
}

// Authenticate requires an HMAC-signed bearer token carrying sub and role
// claims, and stores the resulting principal on the request context.
func Authenticate(secret, issuer string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				rejectUnauthenticated(w, log, r, ErrMissingToken)
				return
			}

			principal, err := ParsePrincipal(strings.TrimSpace(raw), secret, issuer)
			if err != nil {
				rejectUnauthenticated(w, log, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func ParsePrincipal(raw, secret, issuer string) (model.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil || !tok.Valid {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.Principal{}, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return model.Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role, _ := claims["role"].(string)
	switch role = sanitizer.NormalizeRole(role); role {
	case model.RoleAdmin, model.RoleMember:
	case "":
		role = model.RoleMember
	default:
		return model.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}

	return model.Principal{UserID: strings.TrimSpace(sub), Role: role}, nil
}

func rejectUnauthenticated(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason error) {
	log.Warn("Authentication failed",
		"request_id", requestIDFrom(r),
		"reason", reason.Error(),
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
}
