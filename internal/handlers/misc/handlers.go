package misc

import (
	"log"
	"net/http"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/utils"
)

// Liveness probe for the load balancer
func (s *Service) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Printf("Failed to write response on '%s'; %v", r.URL.Path, err)
	}
}

// DB and Redis health status
// Wrap this with middlware that allows only admins
func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {

	data := map[string]any{
		"database_status": s.db.Health(r.Context()),
		"redis_status":    s.rdb.Health(r.Context()),
		"server_status":   getServerStats(),
	}

	utils.WriteJSON(w, http.StatusOK, data)
}
