// Package http provides http transport for ride ingestion
package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ridepulse/internal/core/canon"
	"ridepulse/internal/modkit/httpkit"
	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/net/http/bind"
	"ridepulse/internal/services/ingest/domain"
	svc "ridepulse/internal/services/ingest/service"
)

const maxBodyBytes = 1 << 20

// Register mounts ingestion endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	r.Post("/ride_summary", httpkit.Handle(h.submit))
}

type handlers struct{ svc svc.Service }

// swagger:route POST /ride_summary Ingest ingestRideSummary
// @Summary Submit one anonymized ride summary
// @Tags Ingest
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "UUID making the submission at-most-once"
// @Param payload body domain.RideSummaryInput true "Ride summary"
// @Success 200 {object} domain.Summary "counts"
// @Failure 401 {object} httpkit.Envelope "missing or invalid token"
// @Failure 409 {object} httpkit.Envelope "idempotency body mismatch"
// @Failure 422 {object} httpkit.Envelope "request semantically void"
// @Failure 429 {object} httpkit.Envelope "quota denied"
// @Router /ride_summary [post]
func (h *handlers) submit(r *stdhttp.Request) httpkit.Response {
	key, err := uuid.Parse(r.Header.Get("Idempotency-Key"))
	if err != nil {
		return httpkit.Error(perr.WithField(perr.Validationf("Idempotency-Key must be a UUID"), "Idempotency-Key"))
	}

	// the hash covers the canonical byte form, so the raw body is read
	// once and both hashed and decoded from the same bytes
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return httpkit.Error(perr.JSONErrf("body read failed: %v", err))
	}
	hash, err := canon.HashBytes(raw)
	if err != nil {
		return httpkit.Error(perr.JSONErrf("invalid JSON body"))
	}

	var in domain.RideSummaryInput
	if err := decodeStrict(raw, &in); err != nil {
		return httpkit.Error(err)
	}
	if err := bind.Get().Validator.Struct(in); err != nil {
		field, msg := bind.ValidationFieldAndMessage(err)
		return httpkit.Error(perr.WithField(perr.Validationf("%s", msg), field))
	}

	res, err := h.svc.Submit(r.Context(), domain.SubmitInput{
		Body:     in,
		IdemKey:  key,
		BodyHash: hash,
		PeerIP:   peerIP(r),
		Now:      time.Now().UTC(),
	})

	hdr := rateHeaders(res.RateLimit)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeRateLimited) {
			return httpkit.Error(err).WithHeaders(hdr)
		}
		return httpkit.Error(err)
	}
	return httpkit.OK(res.Summary).WithHeaders(hdr)
}

func decodeStrict(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return perr.JSONErrf("unexpected trailing data")
	}
	return nil
}

func rateHeaders(rl domain.RateState) stdhttp.Header {
	h := stdhttp.Header{}
	h.Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(rl.Reset, 10))
	return h
}

// peerIP strips the port from RemoteAddr, RealIP middleware has already
// rewritten it to the trusted upstream address
func peerIP(r *stdhttp.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
