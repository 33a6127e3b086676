// Package timebin maps UTC instants onto the 192 weekly time bins
// Layout
// bins 0..95    weekday, one per 15 minute slot of the day
// bins 96..191  weekend or holiday, same slots
// Slot boundaries are closed-open on the minute axis, an instant at
// hh:30:00 belongs to the slot starting at hh:30
package timebin

import (
	"fmt"
	"time"
)

// Bins is the total number of weekly bins
const Bins = 192

// SlotsPerDay is the number of 15 minute slots in a day
const SlotsPerDay = 96

// SlotMinutes is the width of one slot
const SlotMinutes = 15

// DayType partitions the week into weekday and weekend halves
type DayType int

const (
	Weekday DayType = iota
	Weekend
)

func (d DayType) String() string {
	if d == Weekend {
		return "weekend"
	}
	return "weekday"
}

// DayTypeOf classifies t, holidays count as weekend
func DayTypeOf(t time.Time, holiday bool) DayType {
	wd := t.UTC().Weekday()
	if holiday || wd == time.Saturday || wd == time.Sunday {
		return Weekend
	}
	return Weekday
}

// SlotOfDay returns the 15 minute slot index of t in [0, 96)
func SlotOfDay(t time.Time) int {
	u := t.UTC()
	return (u.Hour()*60 + u.Minute()) / SlotMinutes
}

// BinOf maps t to its weekly bin in [0, 192)
func BinOf(t time.Time, holiday bool) int {
	slot := SlotOfDay(t)
	if DayTypeOf(t, holiday) == Weekend {
		return SlotsPerDay + slot
	}
	return slot
}

// Describe renders a bin id for diagnostics, eg "weekend 14:30-14:45"
func Describe(bin int) string {
	if bin < 0 || bin >= Bins {
		return fmt.Sprintf("invalid(%d)", bin)
	}
	dt := Weekday
	slot := bin
	if bin >= SlotsPerDay {
		dt = Weekend
		slot = bin - SlotsPerDay
	}
	startMin := slot * SlotMinutes
	endMin := startMin + SlotMinutes
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d",
		dt, startMin/60, startMin%60, endMin/60, endMin%60)
}
