package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Pool utilization above which the health report warns
const busyPool = 0.85

// Health pings the pages database and reports the pool statistics
func (s *service) Health(ctx context.Context) map[string]any {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	start := time.Now()
	if err := s.db.Ping(ctx); err != nil {
		log.Printf("Database %s is down: %v", s.config.DBDatabase, err)
		return map[string]any{
			"status": "down",
			"error":  fmt.Sprintf("db down: %v", err),
		}
	}

	st := s.db.Stat()
	stats := map[string]any{
		"status":           "up",
		"database":         s.config.DBDatabase,
		"ping_ms":          time.Since(start).Milliseconds(),
		"max_connections":  st.MaxConns(),
		"open_connections": st.TotalConns(),
		"in_use":           st.AcquiredConns(),
		"idle":             st.IdleConns(),
		"waited_acquires":  st.EmptyAcquireCount(),
		"acquire_duration": st.AcquireDuration().String(),
	}

	if st.MaxConns() == 0 {
		return stats
	}

	var warnings []string
	utilization := float64(st.AcquiredConns()) / float64(st.MaxConns())
	stats["pool_utilization"] = fmt.Sprintf("%.2f", utilization*100)

	if utilization > busyPool {
		warnings = append(warnings, fmt.Sprintf("pool highly utilized: %.2f%%", utilization*100))
	}

	if st.TotalConns() >= st.MaxConns() {
		warnings = append(warnings, "pool at max capacity")
	}

	if len(warnings) > 0 {
		stats["message"] = strings.Join(warnings, "; ")
	}

	return stats
}
