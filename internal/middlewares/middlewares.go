package middlewares

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/utils"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
)

type Service struct {
	config *config.Config
}

func New(config *config.Config) *Service {
	return &Service{config: config}
}

// Check if the caller is authenticated
func (s *Service) IsAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := utils.GetUserFromContext(r); user.IsAuthenticated() {
			next(w, r)
			return
		}

		utils.JSONError(w, http.StatusUnauthorized, "Missing user information in headers")
	}
}

// Check if the caller can manage every partner's pages
func (s *Service) IsAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := utils.GetUserFromContext(r)
		if !user.IsAuthenticated() {
			utils.JSONError(w, http.StatusUnauthorized, "Missing user information in headers")
			return
		}

		if !user.IsAdmin() {
			utils.HttpError(w, http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

// LoadUser puts the caller identity forwarded by the gateway in context.
// Anonymous requests get no user.
func (s *Service) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		id := strings.TrimSpace(r.Header.Get("X-User-Id"))
		role := models.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get("X-User-Role"))))

		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		user := &models.User{ID: id, Role: role}
		ctx := context.WithValue(r.Context(), utils.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Close the body of requests that carry one
func (s *Service) CloseBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
			defer r.Body.Close()
		}
		next.ServeHTTP(w, r)
	})
}

// Do not crash the app on panic, serve 500 error to the client
func (s *Service) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.Debug {
			defer func() {
				if err := recover(); err != nil {
					log.Printf("Panic in %s %s: %#v", r.Method, r.URL.Path, err)
					utils.JSONError(w, http.StatusInternalServerError, "Something went wrong")
				}
			}()
		}

		next.ServeHTTP(w, r)
	})
}

// Add security headers to the response
func (s *Service) AddHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		if !s.config.Debug {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Logging tags the request with an id and logs it once served
func (s *Service) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()

		requestID := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", requestID)
		ctx := context.WithValue(r.Context(), utils.RequestIDContextKey, requestID)

		recorder := newStatusRecorder(w)
		next.ServeHTTP(recorder, r.WithContext(ctx))

		log.Printf(
			"%s %s %s %d %dB %s",
			requestID, r.Method, r.URL.Path,
			recorder.status, recorder.bytes, time.Since(start).Round(time.Microsecond),
		)
	})
}

// Compress provides gzip compression for the JSON responses
func (s *Service) Compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// Chain middlewares that apply to all handlers
func (s *Service) ApplyToAll(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		// Apply middlewares in reverse order
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
