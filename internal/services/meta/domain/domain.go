// Package domain holds DTOs for the service metadata endpoints
package domain

import (
	"context"

	"ridepulse/internal/services/tuning"
)

// ConfigOut is the GET /v1/config response body
type ConfigOut struct {
	tuning.Params
	// FeedVersion tags the schedule feed the baselines were seeded from
	FeedVersion string `json:"feed_version"`
}

// HealthOut is the GET /v1/health response body, always served with 200
type HealthOut struct {
	Status    string `json:"status"`
	DBOK      bool   `json:"db_ok"`
	UptimeSec int64  `json:"uptime_sec"`
}

// ServicePort is what the http layer calls
type ServicePort interface {
	Config(ctx context.Context) (ConfigOut, error)
	Health(ctx context.Context) HealthOut
}
