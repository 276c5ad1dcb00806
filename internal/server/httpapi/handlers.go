package httpapi

import (
	"github.com/mdemidovs/secretbin/internal/logging"
	"github.com/mdemidovs/secretbin/internal/server/config"
	"github.com/mdemidovs/secretbin/internal/server/services"
)

// Handler carries the services behind the HTTP API.
type Handler struct {
	users   *services.UserService
	secrets *services.SecretService
	shares  *services.ShareService
	baseURL string
	logger  logging.Logger
}

func NewHandler(us *services.UserService, ss *services.SecretService, sh *services.ShareService, cfg *config.Config, logger logging.Logger) *Handler {
	return &Handler{
		users:   us,
		secrets: ss,
		shares:  sh,
		baseURL: cfg.BaseURL,
		logger:  logger.With("component", "httpapi"),
	}
}
