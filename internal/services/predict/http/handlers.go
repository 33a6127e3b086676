// Package http provides http transport for ETA queries
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"ridepulse/internal/modkit/httpkit"
	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/net/http/bind"
	"ridepulse/internal/services/predict/domain"
	svc "ridepulse/internal/services/predict/service"
)

// Register mounts the query endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	r.Get("/eta", httpkit.Handle(h.estimate))
}

type handlers struct{ svc svc.Service }

// @Summary Estimate travel time for one segment
// @Tags Predict
// @Produce json
// @Param route_id query string true "route identifier"
// @Param direction_id query int true "0 or 1"
// @Param from_stop_id query string true "origin stop"
// @Param to_stop_id query string true "destination stop"
// @Param when query string false "RFC3339 instant, defaults to now"
// @Param holiday query bool false "treat the instant as a holiday"
// @Success 200 {object} eta.Estimate
// @Failure 400 {object} httpkit.Envelope "malformed parameters"
// @Failure 404 {object} httpkit.Envelope "unknown segment or no schedule baseline"
// @Router /eta [get]
func (h *handlers) estimate(r *stdhttp.Request) httpkit.Response {
	q, err := parseQuery(r)
	if err != nil {
		return httpkit.Error(err)
	}
	est, err := h.svc.Estimate(r.Context(), q)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(est)
}

func parseQuery(r *stdhttp.Request) (domain.Query, error) {
	v := r.URL.Query()

	var q domain.Query
	q.RouteID = v.Get("route_id")
	q.FromStopID = v.Get("from_stop_id")
	q.ToStopID = v.Get("to_stop_id")

	dir, err := strconv.Atoi(v.Get("direction_id"))
	if err != nil {
		return q, perr.WithField(perr.Validationf("direction_id must be 0 or 1"), "direction_id")
	}
	q.DirectionID = dir

	if raw := v.Get("when"); raw != "" {
		when, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, perr.WithField(perr.Validationf("when must be an RFC3339 instant"), "when")
		}
		q.When = when
	}
	if raw := v.Get("holiday"); raw != "" {
		holiday, err := strconv.ParseBool(raw)
		if err != nil {
			return q, perr.WithField(perr.Validationf("holiday must be a boolean"), "holiday")
		}
		q.Holiday = holiday
	}

	if err := bind.Get().Validator.Struct(q); err != nil {
		field, msg := bind.ValidationFieldAndMessage(err)
		return q, perr.WithField(perr.Validationf("%s", msg), field)
	}
	return q, nil
}
