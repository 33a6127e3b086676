// Package domain holds DTOs for the ETA query path
package domain

import (
	"context"
	"time"

	"ridepulse/internal/core/eta"
)

// Query is one ETA request after parameter parsing
type Query struct {
	RouteID     string `validate:"required,min=1,max=64"`
	DirectionID int    `validate:"oneof=0 1"`
	FromStopID  string `validate:"required,min=1,max=64"`
	ToStopID    string `validate:"required,min=1,max=64"`

	// When defaults to now when zero
	When    time.Time
	Holiday bool
}

// ServicePort is what the http layer calls
type ServicePort interface {
	Estimate(ctx context.Context, q Query) (eta.Estimate, error)
}
