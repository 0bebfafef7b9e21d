package misc

import (
	"context"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
)

// HealthChecker reports the state of a backing service
type HealthChecker interface {
	Health(ctx context.Context) map[string]any
}

type Service struct {
	config *config.Config
	db     HealthChecker
	rdb    HealthChecker
}

func New(config *config.Config, db, rdb HealthChecker) *Service {
	return &Service{
		config: config,
		db:     db,
		rdb:    rdb,
	}
}
