package handler

import (
	"context"

	"github.com/itchan-dev/forum/backend/internal/service"
	"github.com/itchan-dev/forum/shared/config"
)

// HealthChecker is implemented by the storage.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	discussion service.DiscussionService
	post       service.PostService
	read       service.ReadService
	cfg        *config.Config
	health     HealthChecker
}

func New(discussion service.DiscussionService, post service.PostService, read service.ReadService, cfg *config.Config, health HealthChecker) *Handler {
	return &Handler{
		discussion: discussion,
		post:       post,
		read:       read,
		cfg:        cfg,
		health:     health,
	}
}
