package utils

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
)

type contextKey struct {
	name string
}

// Universal context key to get the caller from context
var UserContextKey = contextKey{name: "user"}

// Universal context key to get the request id from context
var RequestIDContextKey = contextKey{name: "request_id"}

// Get the user from context
func GetUserFromContext(r *http.Request) *models.User {
	user, _ := r.Context().Value(UserContextKey).(*models.User)
	return user // nil if user not in context
}

// Get the request id from context
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDContextKey).(string)
	return id
}

// GetBaseURL returns the scheme and host the request was addressed to.
// Behind a proxy the X-Forwarded-* headers win over the connection.
func GetBaseURL(r *http.Request, forceHttps bool) *url.URL {

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	if forceHttps {
		scheme = "https"
	}

	host := r.Host
	if fwd := firstHeaderValue(r, "X-Forwarded-Host"); fwd != "" {
		host = fwd
	}

	return &url.URL{Scheme: scheme, Host: host}
}

// Construct an absolute url given a base url and path
func AbsoluteURL(baseURL *url.URL, path string) string {
	u := *baseURL
	u.Path = path
	return u.String()
}

// Proxies may send a comma separated chain
func firstHeaderValue(r *http.Request, name string) string {
	value, _, _ := strings.Cut(r.Header.Get(name), ",")
	return strings.ToLower(strings.TrimSpace(value))
}

// WriteJSON encodes data as the response body with the given status
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode the JSON response; %v", err)
	}
}

// JSONError writes {"error": message}
func JSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// HttpError writes the standard status text as a JSON error
func HttpError(w http.ResponseWriter, status int) {
	JSONError(w, status, http.StatusText(status))
}
