// Package http provides http transport for service metadata
package http

import (
	stdhttp "net/http"

	"ridepulse/internal/modkit/httpkit"
	svc "ridepulse/internal/services/meta/service"
)

// Register mounts the metadata endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	r.Get("/config", httpkit.Handle(h.config))
	r.Get("/health", httpkit.Handle(h.health))
}

type handlers struct{ svc svc.Service }

// @Summary Active tunables and schedule feed version
// @Tags Meta
// @Produce json
// @Success 200 {object} domain.ConfigOut
// @Router /config [get]
func (h *handlers) config(r *stdhttp.Request) httpkit.Response {
	out, err := h.svc.Config(r.Context())
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(out)
}

// @Summary Liveness and store readiness
// @Tags Meta
// @Produce json
// @Success 200 {object} domain.HealthOut
// @Router /health [get]
func (h *handlers) health(r *stdhttp.Request) httpkit.Response {
	return httpkit.OK(h.svc.Health(r.Context()))
}
