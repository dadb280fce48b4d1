package http

import (
	"github.com/staffhive/staffhive/internal/config"
	"github.com/staffhive/staffhive/internal/service"
)

// Handlers aggregates the services the HTTP surface depends on.
type Handlers struct {
	cfg       *config.Config
	auth      *service.AuthService
	directory *service.DirectoryService
	handoff   *service.HandoffService
	policy    *service.PolicyService
}

// NewHandlers constructs the handler set.
func NewHandlers(cfg *config.Config, auth *service.AuthService, directory *service.DirectoryService, handoff *service.HandoffService, policy *service.PolicyService) *Handlers {
	return &Handlers{
		cfg:       cfg,
		auth:      auth,
		directory: directory,
		handoff:   handoff,
		policy:    policy,
	}
}

// secureCookies reports whether session cookies should carry the Secure
// flag. Plain HTTP only happens in local development.
func (h *Handlers) secureCookies() bool {
	return h.cfg.Server.Scheme == "https"
}
