package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/domain"

	"go.uber.org/zap"
)

// ActivityLogBackend audit endpoints of the records backend
type ActivityLogBackend interface {
	ListActivityLogs(ctx context.Context, q backend.ActivityLogQuery) (*backend.ActivityLogPage, error)
	ActivityLogFilterOptions(ctx context.Context) (json.RawMessage, error)
	ActivityLogStatistics(ctx context.Context) (json.RawMessage, error)
	SecurityAlerts(ctx context.Context) (json.RawMessage, error)
	InactiveResidents(ctx context.Context, page, perPage int) (*backend.Page[json.RawMessage], error)
	FlagInactiveResidents(ctx context.Context) (*backend.FlagResult, error)
	ExportActivityLogs(ctx context.Context, q backend.ActivityLogQuery) (*backend.ExportedFile, error)
	CleanupActivityLogs(ctx context.Context) (*backend.CleanupResult, error)
}

// ActivityLogService audit log views and maintenance actions
type ActivityLogService interface {
	List(ctx context.Context, session string, q backend.ActivityLogQuery) (*backend.ActivityLogPage, error)
	FilterOptions(ctx context.Context) (json.RawMessage, error)
	Statistics(ctx context.Context) (json.RawMessage, error)
	SecurityAlerts(ctx context.Context) (json.RawMessage, error)
	InactiveResidents(ctx context.Context, session string, page, perPage int) (*InactiveResidentsPage, error)
	FlagInactiveResidents(ctx context.Context) (*backend.FlagResult, error)
	Export(ctx context.Context, q backend.ActivityLogQuery) (*backend.ExportedFile, error)
	Cleanup(ctx context.Context) (*backend.CleanupResult, error)
}

type activityLogService struct {
	backend ActivityLogBackend
	latest  *Coordinator
	logger  *zap.Logger
}

func NewActivityLogService(b ActivityLogBackend, latest *Coordinator, logger *zap.Logger) ActivityLogService {
	if latest == nil {
		latest = NewCoordinator()
	}
	return &activityLogService{backend: b, latest: latest, logger: logger}
}

// InactiveResidentsPage inactive residents with their computed status
type InactiveResidentsPage struct {
	Residents   []*domain.Resident `json:"residents"`
	CurrentPage int                `json:"current_page"`
	LastPage    int                `json:"last_page"`
	Total       int                `json:"total"`
}

func (s *activityLogService) List(ctx context.Context, session string, q backend.ActivityLogQuery) (*backend.ActivityLogPage, error) {
	if err := validateDateRange(q); err != nil {
		return nil, err
	}
	return Latest(ctx, s.latest, viewKey(ctx, "activity-logs", session), func(ctx context.Context) (*backend.ActivityLogPage, error) {
		return s.backend.ListActivityLogs(ctx, q)
	})
}

func (s *activityLogService) FilterOptions(ctx context.Context) (json.RawMessage, error) {
	return s.backend.ActivityLogFilterOptions(ctx)
}

func (s *activityLogService) Statistics(ctx context.Context) (json.RawMessage, error) {
	return s.backend.ActivityLogStatistics(ctx)
}

func (s *activityLogService) SecurityAlerts(ctx context.Context) (json.RawMessage, error) {
	return s.backend.SecurityAlerts(ctx)
}

func (s *activityLogService) InactiveResidents(ctx context.Context, session string, page, perPage int) (*InactiveResidentsPage, error) {
	p, err := Latest(ctx, s.latest, viewKey(ctx, "inactive-residents", session), func(ctx context.Context) (*backend.Page[json.RawMessage], error) {
		return s.backend.InactiveResidents(ctx, page, perPage)
	})
	if err != nil {
		return nil, err
	}
	out := &InactiveResidentsPage{
		Residents:   make([]*domain.Resident, 0, len(p.Data)),
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
		Total:       p.Total,
	}
	for i, raw := range p.Data {
		r, err := domain.DecodeResident(raw)
		if err != nil {
			s.logger.Warn("Skipping malformed inactive resident", zap.Int("index", i), zap.Error(err))
			continue
		}
		out.Residents = append(out.Residents, r)
	}
	return out, nil
}

func (s *activityLogService) FlagInactiveResidents(ctx context.Context) (*backend.FlagResult, error) {
	res, err := s.backend.FlagInactiveResidents(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inactive residents flagged for review", zap.Int("flagged", res.FlaggedCount))
	return res, nil
}

func (s *activityLogService) Export(ctx context.Context, q backend.ActivityLogQuery) (*backend.ExportedFile, error) {
	if err := validateDateRange(q); err != nil {
		return nil, err
	}
	return s.backend.ExportActivityLogs(ctx, q)
}

func (s *activityLogService) Cleanup(ctx context.Context) (*backend.CleanupResult, error) {
	res, err := s.backend.CleanupActivityLogs(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Old activity logs cleaned up", zap.Int("deleted", res.DeletedCount))
	return res, nil
}

// validateDateRange both bounds must parse and date_from may not follow date_to
func validateDateRange(q backend.ActivityLogQuery) error {
	from, fromOK := parseBound(q.DateFrom)
	if !fromOK {
		return &ValidationError{Field: "date_from", Message: "Invalid start date"}
	}
	to, toOK := parseBound(q.DateTo)
	if !toOK {
		return &ValidationError{Field: "date_to", Message: "Invalid end date"}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return &ValidationError{Field: "date_to", Message: "End date must not be before start date"}
	}
	return nil
}

// parseBound an empty bound is valid and zero
func parseBound(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	return domain.ParseTimestamp(s)
}
