package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
)

// ErrNoData nothing to export; callers show an informational notice
var ErrNoData = errors.New("no data to export")

// ValidationError a row could not be exported; the whole export is aborted
type ValidationError struct {
	Row    int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid export row %d: %s", e.Row, e.Reason)
}

// Header column order shared by every format
var Header = []string{
	"Resident ID",
	"Name",
	"Email",
	"Update Status",
	"For Review",
	"Verification Status",
	"Last Updated",
}

// Row one exported resident
type Row struct {
	ResidentID         string
	Name               string
	Email              string
	UpdateStatus       string
	ForReview          string
	VerificationStatus string
	LastUpdated        string
}

// Values in Header order
func (r Row) Values() []string {
	return []string{
		r.ResidentID,
		r.Name,
		r.Email,
		r.UpdateStatus,
		r.ForReview,
		r.VerificationStatus,
		r.LastUpdated,
	}
}

// BuildRows validates every record before producing any row
func BuildRows(residents []*domain.Resident, now time.Time) ([]Row, error) {
	if len(residents) == 0 {
		return nil, ErrNoData
	}
	rows := make([]Row, 0, len(residents))
	for i, r := range residents {
		if r == nil {
			return nil, &ValidationError{Row: i + 1, Reason: "record is not an object"}
		}
		rows = append(rows, Row{
			ResidentID:         r.ResidentID,
			Name:               r.FullName(),
			Email:              r.Email,
			UpdateStatus:       string(domain.ResolveStatus(r, now)),
			ForReview:          yesNo(bool(r.ForReview)),
			VerificationStatus: string(r.VerificationStatus),
			LastUpdated:        r.ActivityTimestamp(),
		})
	}
	return rows, nil
}

// DecodeResidents strict decode of raw backend items; any non-object aborts
func DecodeResidents(items []json.RawMessage) ([]*domain.Resident, error) {
	out := make([]*domain.Resident, 0, len(items))
	for i, raw := range items {
		r, err := domain.DecodeResident(raw)
		if err != nil {
			return nil, &ValidationError{Row: i + 1, Reason: err.Error()}
		}
		out = append(out, r)
	}
	return out, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
