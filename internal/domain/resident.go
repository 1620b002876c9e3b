package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// VerificationStatus residency-proof approval state
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationDenied   VerificationStatus = "denied"
)

// Resident mirrors the residents payload returned by the records backend.
// Only the fields the gateway reasons about are typed.
type Resident struct {
	ID                 int64              `json:"id"`
	ResidentID         string             `json:"resident_id"`
	FirstName          string             `json:"first_name"`
	MiddleName         string             `json:"middle_name"`
	LastName           string             `json:"last_name"`
	NameSuffix         string             `json:"name_suffix"`
	Email              string             `json:"email"`
	Role               string             `json:"role,omitempty"`
	LastModified       *string            `json:"last_modified"`
	UpdatedAt          *string            `json:"updated_at"`
	ForReview          FlexBool           `json:"for_review"`
	DisableReason      *string            `json:"disable_reason"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	UpdateStatus       *string            `json:"update_status,omitempty"`
}

// FullName composes first [middle] [last] [suffix]
func (r *Resident) FullName() string {
	if r == nil {
		return ""
	}
	return FormatName(r.FirstName, r.MiddleName, r.LastName, r.NameSuffix)
}

// IsDisabled a non-empty disable_reason marks a soft-disabled record
func (r *Resident) IsDisabled() bool {
	return r != nil && r.DisableReason != nil && strings.TrimSpace(*r.DisableReason) != ""
}

// DetailsHidden denied residents must not expose their profile
func (r *Resident) DetailsHidden() bool {
	return r != nil && VerificationStatus(strings.ToLower(string(r.VerificationStatus))) == VerificationDenied
}

// ActivityTimestamp last_modified when present, otherwise updated_at
func (r *Resident) ActivityTimestamp() string {
	if r == nil {
		return ""
	}
	if r.LastModified != nil && strings.TrimSpace(*r.LastModified) != "" {
		return *r.LastModified
	}
	if r.UpdatedAt != nil {
		return *r.UpdatedAt
	}
	return ""
}

// FormatName trims each part and drops an empty or "none" suffix
func FormatName(first, middle, last, suffix string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{first, middle, last} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if s := strings.TrimSpace(suffix); s != "" && !strings.EqualFold(s, "none") {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// DecodeResident rejects anything that is not a JSON object
func DecodeResident(raw json.RawMessage) (*Resident, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("resident record is not an object")
	}
	var r Resident
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, fmt.Errorf("failed to decode resident: %w", err)
	}
	return &r, nil
}

// FlexBool accepts true/false, 0/1 and their string forms
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "", "null", "false", "0", "no":
		*b = false
		return nil
	case "true", "1", "yes":
		*b = true
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*b = n != 0
		return nil
	}
	return fmt.Errorf("invalid boolean value %q", s)
}

func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}
