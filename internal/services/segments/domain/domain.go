// Package domain holds the segment registry types
package domain

// Segment is one directed stop pair on a route
type Segment struct {
	SegmentID   int64  `json:"segment_id"`
	RouteID     string `json:"route_id"`
	DirectionID int    `json:"direction_id"`
	FromStopID  string `json:"from_stop_id"`
	ToStopID    string `json:"to_stop_id"`
}

// Key identifies a segment by its natural tuple
type Key struct {
	RouteID     string
	DirectionID int
	FromStopID  string
	ToStopID    string
}

// Key returns the natural key of s
func (s Segment) Key() Key {
	return Key{
		RouteID:     s.RouteID,
		DirectionID: s.DirectionID,
		FromStopID:  s.FromStopID,
		ToStopID:    s.ToStopID,
	}
}
