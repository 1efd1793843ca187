package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Hour bounds accepted for a project window.
const (
	MinHour = 0
	MaxHour = 23

	DefaultStartHour = 9
	DefaultEndHour   = 17
)

// TimeSlots returns "HH:00" labels for every hour in [start, end).
func TimeSlots(start, end int) []string {
	if end <= start {
		return []string{}
	}
	slots := make([]string, 0, end-start)
	for h := start; h < end; h++ {
		slots = append(slots, FormatSlot(h))
	}
	return slots
}

// FormatSlot formats an hour as a zero-padded slot label.
func FormatSlot(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// ParseSlot returns the hour of a "HH:00" label.
func ParseSlot(slot string) (int, bool) {
	h, rest, ok := strings.Cut(slot, ":")
	if !ok || rest != "00" || len(h) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < MinHour || hour > MaxHour {
		return 0, false
	}
	return hour, true
}
