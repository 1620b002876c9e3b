package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
	"github.com/Maristella28/Bms-1125-sub002/internal/export"
	"github.com/Maristella28/Bms-1125-sub002/internal/models"
	"github.com/Maristella28/Bms-1125-sub002/internal/store"

	"go.uber.org/zap"
)

// ValidationError is the backend's validation error so that backend.Classify
// sees failures raised here as validation failures.
type ValidationError = backend.ValidationError

// ResidentBackend resident endpoints of the records backend
type ResidentBackend interface {
	ListResidents(ctx context.Context, scope backend.Scope) ([]json.RawMessage, error)
	GetResident(ctx context.Context, id string) (json.RawMessage, error)
	UpdateResident(ctx context.Context, id string, fields map[string]any) (json.RawMessage, error)
	ApproveVerification(ctx context.Context, id string) (json.RawMessage, error)
	DenyVerification(ctx context.Context, id, comment string) (json.RawMessage, error)
	DisableResident(ctx context.Context, id, reason string) (json.RawMessage, error)
}

// ResidentService residents list, export and verification actions
type ResidentService interface {
	ListResidents(ctx context.Context, req ListResidentsRequest) (*ListResidentsResponse, error)
	ExportResidents(ctx context.Context, req ExportResidentsRequest) (*export.File, error)
	GetResident(ctx context.Context, id string) (*ResidentItem, error)
	UpdateResident(ctx context.Context, id string, fields map[string]any) (*ResidentItem, error)
	ApproveVerification(ctx context.Context, id string) (*ResidentItem, error)
	DenyVerification(ctx context.Context, id, comment string) (*ResidentItem, error)
	DisableResident(ctx context.Context, id, reason string) (*ResidentItem, error)
}

type residentService struct {
	backend         ResidentBackend
	kv              store.KV
	exporter        *export.Exporter
	latest          *Coordinator
	snapshotTTL     time.Duration
	defaultPageSize int
	logger          *zap.Logger
	now             func() time.Time

	pagesMu sync.Mutex
	pages   map[string]*pageView
}

// pageView page cursor of one console list view
type pageView struct {
	state *models.PageState
	used  time.Time
}

// pageViewIdle views untouched this long are forgotten
const pageViewIdle = 30 * time.Minute

// ResidentServiceOptions optional tuning for NewResidentService
type ResidentServiceOptions struct {
	SnapshotTTL     time.Duration
	DefaultPageSize int
}

func NewResidentService(
	b ResidentBackend,
	kv store.KV,
	exporter *export.Exporter,
	latest *Coordinator,
	opts ResidentServiceOptions,
	logger *zap.Logger,
) ResidentService {
	if latest == nil {
		latest = NewCoordinator()
	}
	return &residentService{
		backend:         b,
		kv:              kv,
		exporter:        exporter,
		latest:          latest,
		snapshotTTL:     opts.SnapshotTTL,
		defaultPageSize: models.NormalizePageSize(opts.DefaultPageSize, models.DefaultPageSize),
		logger:          logger,
		now:             time.Now,
		pages:           make(map[string]*pageView),
	}
}

// ListResidentsRequest one residents view fetch
type ListResidentsRequest struct {
	Scope   backend.Scope
	Session string // console session; fetches of the same session supersede each other
	Filter  ResidentFilter
	Page    int
	Size    int
}

// ResidentItem list/detail row: the backend record plus derived fields
type ResidentItem struct {
	domain.Resident
	FullName       string `json:"full_name"`
	UpdateStatus   string `json:"update_status"`
	ComputedStatus string `json:"computed_status"`
	Disabled       bool   `json:"disabled"`
	DetailsHidden  bool   `json:"details_hidden"`
}

type ListResidentsResponse struct {
	Items      []ResidentItem           `json:"items"`
	Pagination models.BackendPagination `json:"pagination"`
	// Stale the backend was unreachable and the last snapshot was served
	Stale bool `json:"stale"`
}

// ExportResidentsRequest export of the filtered (not paginated) list
type ExportResidentsRequest struct {
	Scope  backend.Scope
	Filter ResidentFilter
	Format export.Format
}

// snapshotKey the snapshot belongs to the caller who fetched it
func snapshotKey(scope backend.Scope, caller string) string {
	return "residents:snapshot:" + string(scope) + ":" + caller
}

func (s *residentService) ListResidents(ctx context.Context, req ListResidentsRequest) (*ListResidentsResponse, error) {
	if !ValidStatusFilter(req.Filter.Status) {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status filter %q", req.Filter.Status)}
	}
	if req.Scope == "" {
		req.Scope = backend.ScopeAdmin
	}

	view := viewKey(ctx, "residents:"+string(req.Scope), req.Session)
	caller := callerID(ctx)
	raws, err := Latest(ctx, s.latest, view, func(ctx context.Context) ([]json.RawMessage, error) {
		return s.backend.ListResidents(ctx, req.Scope)
	})
	stale := false
	switch {
	case err == nil:
		s.saveSnapshot(ctx, req.Scope, caller, raws)
	case backend.Classify(err) == backend.KindCancelled:
		return nil, err
	case unreachable(err):
		snap, ok := s.loadSnapshot(ctx, req.Scope, caller)
		if !ok {
			return nil, err
		}
		s.logger.Warn("Backend unreachable, serving resident snapshot",
			zap.String("scope", string(req.Scope)),
			zap.Error(err),
		)
		raws, stale = snap, true
	default:
		return nil, err
	}

	residents := s.decodeLenient(raws)
	now := s.now()
	if stale {
		// server-computed labels may be out of date; recompute locally
		for _, r := range residents {
			r.UpdateStatus = nil
		}
	}
	filtered := FilterResidents(residents, req.Filter, now)

	pagination := s.paginate(view, req, len(filtered))
	page, _ := models.PageSlice(filtered, pagination.Page, pagination.Size)

	items := make([]ResidentItem, 0, len(page))
	for _, r := range page {
		items = append(items, s.item(r, now))
	}
	return &ListResidentsResponse{Items: items, Pagination: pagination, Stale: stale}, nil
}

func (s *residentService) ExportResidents(ctx context.Context, req ExportResidentsRequest) (*export.File, error) {
	if !ValidStatusFilter(req.Filter.Status) {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status filter %q", req.Filter.Status)}
	}
	if req.Scope == "" {
		req.Scope = backend.ScopeAdmin
	}
	raws, err := s.backend.ListResidents(ctx, req.Scope)
	if err != nil {
		return nil, err
	}
	residents, err := export.DecodeResidents(raws)
	if err != nil {
		s.exporter.Report(ctx, err)
		return nil, err
	}
	return s.exporter.Export(ctx, req.Format, FilterResidents(residents, req.Filter, s.now()))
}

func (s *residentService) GetResident(ctx context.Context, id string) (*ResidentItem, error) {
	raw, err := s.backend.GetResident(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decodeItem(raw)
}

func (s *residentService) ApproveVerification(ctx context.Context, id string) (*ResidentItem, error) {
	raw, err := s.backend.ApproveVerification(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Resident verification approved", zap.String("resident_id", id))
	s.dropSnapshots(ctx)
	return s.decodeItem(raw)
}

func (s *residentService) DenyVerification(ctx context.Context, id, comment string) (*ResidentItem, error) {
	raw, err := s.backend.DenyVerification(ctx, id, strings.TrimSpace(comment))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Resident verification denied", zap.String("resident_id", id))
	s.dropSnapshots(ctx)
	return s.decodeItem(raw)
}

// serverOwnedFields are set by the backend and never forwarded on update
var serverOwnedFields = []string{
	"id", "resident_id", "user_id", "verification_status", "update_status",
	"created_at", "updated_at", "last_modified", "disable_reason",
}

func (s *residentService) UpdateResident(ctx context.Context, id string, fields map[string]any) (*ResidentItem, error) {
	changes := make(map[string]any, len(fields))
	for k, v := range fields {
		changes[k] = v
	}
	for _, k := range serverOwnedFields {
		delete(changes, k)
	}
	if len(changes) == 0 {
		return nil, &ValidationError{Message: "No changes to save"}
	}
	raw, err := s.backend.UpdateResident(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Resident updated", zap.String("resident_id", id), zap.Int("fields", len(changes)))
	s.dropSnapshots(ctx)
	return s.decodeItem(raw)
}

func (s *residentService) DisableResident(ctx context.Context, id, reason string) (*ResidentItem, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "disable_reason", Message: "Please provide a reason for disabling this resident"}
	}
	raw, err := s.backend.DisableResident(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Resident disabled", zap.String("resident_id", id))
	s.dropSnapshots(ctx)
	return s.decodeItem(raw)
}

func (s *residentService) decodeItem(raw json.RawMessage) (*ResidentItem, error) {
	r, err := domain.DecodeResident(raw)
	if err != nil {
		return nil, err
	}
	item := s.item(r, s.now())
	return &item, nil
}

// item derives the row for r; denied residents keep only their identifiers
func (s *residentService) item(r *domain.Resident, now time.Time) ResidentItem {
	computed := domain.Classify(r, now)
	resolved := domain.ResolveStatus(r, now)
	if resolved != computed {
		s.logger.Debug("Server update_status differs from computed status",
			zap.String("resident_id", r.ResidentID),
			zap.String("server", string(resolved)),
			zap.String("computed", string(computed)),
		)
	}
	item := ResidentItem{
		Resident:       *r,
		FullName:       r.FullName(),
		UpdateStatus:   string(resolved),
		ComputedStatus: string(computed),
		Disabled:       r.IsDisabled(),
		DetailsHidden:  r.DetailsHidden(),
	}
	if item.DetailsHidden {
		item.FirstName, item.MiddleName, item.LastName, item.NameSuffix = "", "", "", ""
		item.Email, item.FullName = "", ""
	}
	return item
}

// decodeLenient skips items that are not resident objects
func (s *residentService) decodeLenient(raws []json.RawMessage) []*domain.Resident {
	out := make([]*domain.Resident, 0, len(raws))
	for i, raw := range raws {
		r, err := domain.DecodeResident(raw)
		if err != nil {
			s.logger.Warn("Skipping malformed resident", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out
}

// paginate resolves the page for view. A view whose filter or page size
// changed since its previous fetch goes back to page 1. Without a view the
// requested page is only clamped.
func (s *residentService) paginate(view string, req ListResidentsRequest, total int) models.BackendPagination {
	search := strings.TrimSpace(req.Filter.Search)
	if view == "" {
		p, _, _ := models.Paginate(total, req.Page, models.NormalizePageSize(req.Size, s.defaultPageSize))
		return p
	}

	s.pagesMu.Lock()
	defer s.pagesMu.Unlock()
	now := s.now()
	v, ok := s.pages[view]
	if !ok {
		for k, old := range s.pages {
			if now.Sub(old.used) > pageViewIdle {
				delete(s.pages, k)
			}
		}
		st := models.NewPageState(models.NormalizePageSize(req.Size, s.defaultPageSize))
		st.SetSearch(search)
		st.SetStatus(req.Filter.Status)
		st.SetRole(req.Filter.Role)
		v = &pageView{state: st}
		s.pages[view] = v
	}
	v.used = now

	st := v.state
	st.SetPage(req.Page)
	st.SetPageSize(req.Size)
	st.SetSearch(search)
	st.SetStatus(req.Filter.Status)
	st.SetRole(req.Filter.Role)
	return st.Clamp(total)
}

// saveSnapshot anonymous callers get no snapshot
func (s *residentService) saveSnapshot(ctx context.Context, scope backend.Scope, caller string, raws []json.RawMessage) {
	if s.kv == nil || caller == "" {
		return
	}
	data, err := json.Marshal(raws)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, snapshotKey(scope, caller), string(data), s.snapshotTTL); err != nil {
		s.logger.Warn("Failed to store resident snapshot", zap.String("scope", string(scope)), zap.Error(err))
	}
}

func (s *residentService) loadSnapshot(ctx context.Context, scope backend.Scope, caller string) ([]json.RawMessage, bool) {
	if s.kv == nil || caller == "" {
		return nil, false
	}
	val, err := s.kv.Get(ctx, snapshotKey(scope, caller))
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("Failed to read resident snapshot", zap.String("scope", string(scope)), zap.Error(err))
		}
		return nil, false
	}
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(val), &raws); err != nil {
		return nil, false
	}
	return raws, true
}

// dropSnapshots after a mutation the cached lists no longer reflect the backend
func (s *residentService) dropSnapshots(ctx context.Context) {
	if s.kv == nil {
		return
	}
	keys, err := s.kv.ScanKeys(ctx, "residents:snapshot:*")
	if err != nil {
		s.logger.Warn("Failed to scan resident snapshots", zap.Error(err))
		return
	}
	for _, k := range keys {
		_ = s.kv.Delete(ctx, k)
	}
}

// unreachable transport failures and 5xx answers; 4xx are real answers
func unreachable(err error) bool {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return err != nil
}
