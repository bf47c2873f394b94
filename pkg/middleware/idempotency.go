package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response served from the idempotency store.
	ReplayedHeader = "Idempotent-Replayed"
)

// IdempotencyStore keeps successful responses of unsafe requests for a TTL.
// A lookup error is reported as a miss, so the request runs again.
//
// Claim marks a key as in flight and reports false when another request
// already holds it; Abandon clears the mark.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool)
	Set(ctx context.Context, key string, response *CachedResponse)
	Claim(ctx context.Context, key string) bool
	Abandon(ctx context.Context, key string)
	Stop()
}

// inFlightTTL bounds how long a claim survives a holder that never abandons
// it.
const inFlightTTL = 2 * time.Minute

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

// InMemoryIdempotencyStore serves a single instance. Use the Redis store when
// several instances sit behind one load balancer.
type InMemoryIdempotencyStore struct {
	mu       sync.RWMutex
	store    map[string]*CachedResponse
	inFlight map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		store:    make(map[string]*CachedResponse),
		inFlight: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go store.sweep(sweepInterval(ttl))

	return store
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < time.Hour {
		return ttl
	}
	return time.Hour
}

func (s *InMemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, bool) {
	s.mu.RLock()
	response, exists := s.store[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if s.expired(response) {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, false
	}

	return response, true
}

func (s *InMemoryIdempotencyStore) Set(_ context.Context, key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = s.now()
	s.store[key] = response
}

func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, held := s.inFlight[key]; held && now.Before(until) {
		return false
	}
	s.inFlight[key] = now.Add(inFlightTTL)
	return true
}

func (s *InMemoryIdempotencyStore) Abandon(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

func (s *InMemoryIdempotencyStore) expired(response *CachedResponse) bool {
	return s.now().Sub(response.CreatedAt) > s.ttl
}

func (s *InMemoryIdempotencyStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.store {
				if s.expired(response) {
					delete(s.store, key)
				}
			}
			now := s.now()
			for key, until := range s.inFlight {
				if !now.Before(until) {
					delete(s.inFlight, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	if rc.wroteHeader {
		return
	}
	rc.wroteHeader = true
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.wroteHeader {
		rc.WriteHeader(http.StatusOK)
	}
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated key, so
// a client retrying a reservation after a dropped connection gets the
// original booking back instead of a slot conflict with itself. A retry that
// arrives while the first request is still running is turned away with 409
// IDEMPOTENCY_KEY_IN_USE and a Retry-After hint. Keys are scoped to the
// caller and route. Only unsafe methods are considered.
func Idempotency(store IdempotencyStore, headerName string, log *logger.Logger) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, found := store.Get(r.Context(), key); found {
				replayLogged(w, r, cached, log)
				return
			}

			if !store.Claim(r.Context(), key) {
				log.Warn("Idempotency key already in flight",
					"request_id", requestIDFrom(r),
					"method", r.Method,
					"path", r.URL.Path,
				)
				_ = httputil.WriteError(w, apperrors.IdempotencyInFlight())
				return
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), storeWriteTimeout)
				defer cancel()
				store.Abandon(ctx, key)
			}()

			// The previous holder may have finished between the lookup and the claim.
			if cached, found := store.Get(r.Context(), key); found {
				replayLogged(w, r, cached, log)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.statusCode < 200 || capture.statusCode >= 300 {
				return
			}
			// The request context may already be done once the handler returns.
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), storeWriteTimeout)
			defer cancel()
			store.Set(ctx, key, &CachedResponse{
				StatusCode: capture.statusCode,
				Headers:    w.Header().Clone(),
				Body:       capture.body.Bytes(),
			})
		})
	}
}

const storeWriteTimeout = 2 * time.Second

func idempotencyKey(r *http.Request, headerName string) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ""
	}
	key := strings.TrimSpace(r.Header.Get(headerName))
	if key == "" {
		return ""
	}
	return strings.Join([]string{PrincipalKey(r), r.Method, r.URL.Path, key}, "|")
}

func replayLogged(w http.ResponseWriter, r *http.Request, cached *CachedResponse, log *logger.Logger) {
	log.Info("Replaying idempotent response",
		"request_id", requestIDFrom(r),
		"method", r.Method,
		"path", r.URL.Path,
		"status", cached.StatusCode,
	)
	replay(w, cached)
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		if key == http.CanonicalHeaderKey(RequestIDHeader) {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
