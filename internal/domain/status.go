package domain

import (
	"strings"
	"time"
)

// UpdateStatus freshness label derived from the last profile activity
type UpdateStatus string

const (
	StatusActive            UpdateStatus = "Active"
	StatusOutdated          UpdateStatus = "Outdated"
	StatusNeedsVerification UpdateStatus = "Needs Verification"
)

const (
	activeMonths   = 6
	outdatedMonths = 12
)

// timestampLayouts formats the backend has been seen to emit
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
}

// ParseTimestamp reports false for empty or unparseable input
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthsBetween calendar-month difference; day of month is ignored.
// then is interpreted in now's location.
func MonthsBetween(then, now time.Time) int {
	then = then.In(now.Location())
	return (now.Year()-then.Year())*12 + int(now.Month()) - int(then.Month())
}

// ClassifyTimestamp maps a raw activity timestamp to its UpdateStatus
func ClassifyTimestamp(raw string, now time.Time) UpdateStatus {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return StatusNeedsVerification
	}
	switch months := MonthsBetween(t, now); {
	case months <= activeMonths:
		return StatusActive
	case months <= outdatedMonths:
		return StatusOutdated
	default:
		return StatusNeedsVerification
	}
}

// Classify never panics; a nil resident needs verification
func Classify(r *Resident, now time.Time) UpdateStatus {
	if r == nil {
		return StatusNeedsVerification
	}
	return ClassifyTimestamp(r.ActivityTimestamp(), now)
}

// ParseUpdateStatus accepts the label or its filter key, case-insensitively
func ParseUpdateStatus(s string) (UpdateStatus, bool) {
	switch FilterKey(UpdateStatus(s)) {
	case "active":
		return StatusActive, true
	case "outdated":
		return StatusOutdated, true
	case "needs_verification":
		return StatusNeedsVerification, true
	}
	return "", false
}

// ResolveStatus prefers a recognised server-computed update_status and only
// recomputes when it is missing.
func ResolveStatus(r *Resident, now time.Time) UpdateStatus {
	if r != nil && r.UpdateStatus != nil {
		if s, ok := ParseUpdateStatus(*r.UpdateStatus); ok {
			return s
		}
	}
	return Classify(r, now)
}

// FilterKey lower-cased, spaces replaced by underscores
func FilterKey(s UpdateStatus) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(s))), " ", "_")
}
