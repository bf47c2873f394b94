package middleware

import (
	"net/http"

	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
)

// MaxRequestSize caps request bodies at maxBytes. Requests that declare a
// larger Content-Length are refused up front; others fail when the handler
// reads past the limit.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				_ = httputil.WriteError(w, apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
