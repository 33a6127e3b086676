// Package domain holds DTOs for the ride ingestion pipeline
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SegmentObs is one observed traversal of a stop pair
type SegmentObs struct {
	FromStopID   string    `json:"from_stop_id" validate:"required,min=1,max=64" example:"stop_1041"`
	ToStopID     string    `json:"to_stop_id" validate:"required,min=1,max=64" example:"stop_1042"`
	DurationSec  float64   `json:"duration_sec" validate:"required,gt=0,lte=7200" example:"284.5"`
	DwellSec     *float64  `json:"dwell_sec,omitempty" validate:"omitempty,gte=0" example:"12.0"`
	MapMatchConf *float64  `json:"mapmatch_conf,omitempty" validate:"omitempty,gte=0,lte=1" example:"0.92"`
	ObservedAt   time.Time `json:"observed_at" validate:"required"`
	Holiday      bool      `json:"holiday,omitempty"`
}

// RideSummaryInput is the POST /v1/ride_summary body
type RideSummaryInput struct {
	RouteID     string       `json:"route_id" validate:"required,min=1,max=64" example:"12"`
	DirectionID int          `json:"direction_id" validate:"oneof=0 1" example:"0"`
	BucketID    string       `json:"bucket_id,omitempty" validate:"omitempty,max=128"`
	Segments    []SegmentObs `json:"segments" validate:"required,min=1,dive"`
}

// Rejection reasons, reported as counts, never as request errors
const (
	ReasonOutlier         = "outlier"
	ReasonLowConfidence   = "low_confidence"
	ReasonInvalidSegment  = "invalid_segment"
	ReasonStaleTimestamp  = "stale_timestamp"
	ReasonTooManySegments = "too_many_segments"
)

// RejectionCounts breaks rejected segments down by reason
type RejectionCounts struct {
	Outlier         int `json:"outlier"`
	LowConfidence   int `json:"low_confidence"`
	InvalidSegment  int `json:"invalid_segment"`
	StaleTimestamp  int `json:"stale_timestamp"`
	TooManySegments int `json:"too_many_segments"`
}

// Add bumps the counter for reason
func (c *RejectionCounts) Add(reason string) {
	switch reason {
	case ReasonOutlier:
		c.Outlier++
	case ReasonLowConfidence:
		c.LowConfidence++
	case ReasonInvalidSegment:
		c.InvalidSegment++
	case ReasonStaleTimestamp:
		c.StaleTimestamp++
	case ReasonTooManySegments:
		c.TooManySegments++
	}
}

// Total sums all rejection reasons
func (c RejectionCounts) Total() int {
	return c.Outlier + c.LowConfidence + c.InvalidSegment + c.StaleTimestamp + c.TooManySegments
}

// Summary is the 200 response body
type Summary struct {
	AcceptedSegments int             `json:"accepted_segments"`
	RejectedSegments int             `json:"rejected_segments"`
	RejectedByReason RejectionCounts `json:"rejected_by_reason"`
}

// RateState carries the bucket view returned in X-RateLimit headers
type RateState struct {
	Limit     int
	Remaining int
	// Reset is the unix second the window refills
	Reset int64
}

// SubmitInput is the full admission request handed to the orchestrator
type SubmitInput struct {
	Body     RideSummaryInput
	IdemKey  uuid.UUID
	BodyHash [32]byte
	// PeerIP is the trusted remote address, quota fallback when BucketID is absent
	PeerIP string
	Now    time.Time
}

// SubmitResult is the orchestrator outcome for an admitted or replayed request
type SubmitResult struct {
	Summary   Summary
	Replay    bool
	RateLimit RateState
}
