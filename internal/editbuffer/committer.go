package editbuffer

import (
	"context"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
)

// ServiceCommitter commits straight through an in-process publishing service
type ServiceCommitter struct {
	Service *publish.Service
	Origin  publish.Origin
}

func (c ServiceCommitter) CommitPage(
	ctx context.Context,
	pageID string,
	changes map[string]string,
) (*models.Page, error) {
	return c.Service.Commit(ctx, pageID, changes, c.Origin)
}
