package service

import (
	"strings"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
)

// StatusForReview filter value for the for_review flag
const StatusForReview = "for_review"

// ResidentFilter list filters of the residents view
type ResidentFilter struct {
	Search string
	Status string // for_review | active | outdated | needs_verification | ""
	Role   string
}

// ValidStatusFilter reports whether s is a status filter the list understands
func ValidStatusFilter(s string) bool {
	switch s {
	case "", StatusForReview:
		return true
	}
	st, ok := domain.ParseUpdateStatus(s)
	return ok && domain.FilterKey(st) == s
}

// FilterResidents applies search, status and role filters without reordering.
// Nil entries are dropped.
func FilterResidents(list []*domain.Resident, f ResidentFilter, now time.Time) []*domain.Resident {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	role := strings.TrimSpace(f.Role)
	out := make([]*domain.Resident, 0, len(list))
	for _, r := range list {
		if r == nil {
			continue
		}
		if search != "" && !strings.Contains(searchText(r), search) {
			continue
		}
		if !matchStatus(r, f.Status, now) {
			continue
		}
		if role != "" && !strings.EqualFold(role, "all") && !strings.EqualFold(role, r.Role) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func searchText(r *domain.Resident) string {
	return strings.ToLower(strings.Join([]string{
		r.FirstName, r.MiddleName, r.LastName, r.NameSuffix, r.Email, r.ResidentID,
	}, " "))
}

func matchStatus(r *domain.Resident, status string, now time.Time) bool {
	switch status {
	case "":
		return true
	case StatusForReview:
		return bool(r.ForReview)
	}
	return domain.FilterKey(domain.ResolveStatus(r, now)) == status
}
