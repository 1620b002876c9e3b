package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
	"github.com/Maristella28/Bms-1125-sub002/internal/export"
	"github.com/Maristella28/Bms-1125-sub002/internal/notify"
	"github.com/Maristella28/Bms-1125-sub002/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

func newTestResidentService(fb *fakeBackend, kv store.KV) (*residentService, *notify.Recorder) {
	rec := notify.NewRecorder(0)
	svc := NewResidentService(fb, kv, export.NewExporter(rec, zap.NewNop()), nil, ResidentServiceOptions{}, zap.NewNop()).(*residentService)
	svc.now = func() time.Time { return fixedNow }
	return svc, rec
}

func TestFilterResidents_NeedsVerificationScenario(t *testing.T) {
	today := fixedNow.Format("2006-01-02")
	list := []*domain.Resident{
		{ResidentID: "A", LastModified: nil},
		{ResidentID: "B", LastModified: strPtr("2020-01-01")},
		{ResidentID: "C", LastModified: strPtr(today)},
	}
	got := FilterResidents(list, ResidentFilter{Status: "needs_verification"}, fixedNow)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ResidentID)
	assert.Equal(t, "B", got[1].ResidentID)
}

func TestFilterResidents_Idempotent(t *testing.T) {
	list := []*domain.Resident{
		{ResidentID: "A", LastModified: strPtr("2024-12-01")},
		{ResidentID: "B", LastModified: strPtr("2024-03-01"), ForReview: true},
		{ResidentID: "C"},
	}
	for _, status := range []string{"", "for_review", "active", "outdated", "needs_verification"} {
		f := ResidentFilter{Status: status}
		once := FilterResidents(list, f, fixedNow)
		twice := FilterResidents(once, f, fixedNow)
		assert.Equal(t, once, twice, status)
	}
}

func TestFilterResidents_Search(t *testing.T) {
	list := []*domain.Resident{
		{ResidentID: "R-001", FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.com"},
		{ResidentID: "R-002", FirstName: "Maria", MiddleName: "Luna", NameSuffix: "III"},
	}
	assert.Len(t, FilterResidents(list, ResidentFilter{Search: "   "}, fixedNow), 2)
	assert.Len(t, FilterResidents(list, ResidentFilter{Search: "DELA"}, fixedNow), 1)
	assert.Len(t, FilterResidents(list, ResidentFilter{Search: "luna"}, fixedNow), 1)
	assert.Len(t, FilterResidents(list, ResidentFilter{Search: "iii"}, fixedNow), 1)
	assert.Len(t, FilterResidents(list, ResidentFilter{Search: "r-00"}, fixedNow), 2)
	assert.Len(t, FilterResidents(list, ResidentFilter{Search: "@example"}, fixedNow), 1)
}

func TestFilterResidents_ForReviewIgnoresClassifier(t *testing.T) {
	list := []*domain.Resident{
		{ResidentID: "A", LastModified: strPtr("2024-12-01"), ForReview: true},
		{ResidentID: "B", LastModified: strPtr("2019-01-01")},
	}
	got := FilterResidents(list, ResidentFilter{Status: StatusForReview}, fixedNow)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ResidentID)
}

func TestValidStatusFilter(t *testing.T) {
	for _, s := range []string{"", "for_review", "active", "outdated", "needs_verification"} {
		assert.True(t, ValidStatusFilter(s), s)
	}
	for _, s := range []string{"Active", "needs verification", "archived"} {
		assert.False(t, ValidStatusFilter(s), s)
	}
}

func TestListResidents_PaginatesAndClamps(t *testing.T) {
	items := make([]map[string]any, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, map[string]any{"id": i + 1, "resident_id": "R", "first_name": "Res", "last_modified": "2024-12-01"})
	}
	fb := &fakeBackend{residents: rawResidents(items...)}
	svc, _ := newTestResidentService(fb, store.NewMemoryKV())

	resp, err := svc.ListResidents(context.Background(), ListResidentsRequest{Page: 9, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Pagination.Page)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Len(t, resp.Items, 5)
	assert.False(t, resp.Stale)

	resp, err = svc.ListResidents(context.Background(), ListResidentsRequest{Size: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Pagination.Size)
}

func TestListResidents_EmptyHasOnePage(t *testing.T) {
	fb := &fakeBackend{residents: []json.RawMessage{}}
	svc, _ := newTestResidentService(fb, nil)
	resp, err := svc.ListResidents(context.Background(), ListResidentsRequest{Page: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 0, resp.Pagination.TotalPages)
	assert.Empty(t, resp.Items)
}

func TestListResidents_ServerStatusPreferred(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(
		map[string]any{"resident_id": "A", "last_modified": "2024-12-01", "update_status": "Outdated"},
	)}
	svc, _ := newTestResidentService(fb, nil)
	resp, err := svc.ListResidents(context.Background(), ListResidentsRequest{Filter: ResidentFilter{Status: "outdated"}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Outdated", resp.Items[0].UpdateStatus)
	assert.Equal(t, "Active", resp.Items[0].ComputedStatus)
}

func TestListResidents_StaleSnapshotFallback(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(
		map[string]any{"resident_id": "A", "last_modified": "2024-12-01", "update_status": "Outdated"},
	)}
	kv := store.NewMemoryKV()
	svc, _ := newTestResidentService(fb, kv)
	ctx := backend.WithAuthToken(context.Background(), "admin-tok")

	_, err := svc.ListResidents(ctx, ListResidentsRequest{})
	require.NoError(t, err)

	fb.residentsErr = errUnreachable
	resp, err := svc.ListResidents(ctx, ListResidentsRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Stale)
	require.Len(t, resp.Items, 1)
	// recomputed locally while offline
	assert.Equal(t, "Active", resp.Items[0].UpdateStatus)
}

func TestListResidents_SnapshotIsPerCaller(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(
		map[string]any{"resident_id": "A", "first_name": "Juan", "email": "juan@example.com"},
	)}
	kv := store.NewMemoryKV()
	svc, _ := newTestResidentService(fb, kv)
	admin := backend.WithAuthToken(context.Background(), "admin-tok")

	_, err := svc.ListResidents(admin, ListResidentsRequest{})
	require.NoError(t, err)

	fb.residentsErr = &backend.APIError{Status: 503, Message: "Service Unavailable"}

	_, err = svc.ListResidents(context.Background(), ListResidentsRequest{})
	require.Error(t, err, "anonymous callers never get a snapshot")

	other := backend.WithAuthToken(context.Background(), "staff-tok")
	_, err = svc.ListResidents(other, ListResidentsRequest{})
	require.Error(t, err)

	resp, err := svc.ListResidents(admin, ListResidentsRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Stale)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Juan", resp.Items[0].FirstName)

	keys, err := kv.ScanKeys(context.Background(), "residents:snapshot:*")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], "admin-tok")
}

func TestListResidents_AnonymousSuccessStoresNoSnapshot(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(map[string]any{"resident_id": "A"})}
	kv := store.NewMemoryKV()
	svc, _ := newTestResidentService(fb, kv)

	_, err := svc.ListResidents(context.Background(), ListResidentsRequest{})
	require.NoError(t, err)
	keys, err := kv.ScanKeys(context.Background(), "residents:snapshot:*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestListResidents_ClientErrorDoesNotFallBack(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(map[string]any{"resident_id": "A"})}
	kv := store.NewMemoryKV()
	svc, _ := newTestResidentService(fb, kv)
	ctx := backend.WithAuthToken(context.Background(), "admin-tok")
	_, err := svc.ListResidents(ctx, ListResidentsRequest{})
	require.NoError(t, err)

	fb.residentsErr = &backend.APIError{Status: 403, Message: "Forbidden"}
	_, err = svc.ListResidents(ctx, ListResidentsRequest{})
	require.Error(t, err)
	assert.Equal(t, backend.KindServer, backend.Classify(err))
}

func TestListResidents_NoSnapshotReturnsError(t *testing.T) {
	fb := &fakeBackend{residentsErr: errUnreachable}
	svc, _ := newTestResidentService(fb, store.NewMemoryKV())
	_, err := svc.ListResidents(context.Background(), ListResidentsRequest{})
	assert.ErrorIs(t, err, errUnreachable)
}

func TestListResidents_UnknownStatusIsValidation(t *testing.T) {
	svc, _ := newTestResidentService(&fakeBackend{}, nil)
	_, err := svc.ListResidents(context.Background(), ListResidentsRequest{Filter: ResidentFilter{Status: "archived"}})
	assert.Equal(t, backend.KindValidation, backend.Classify(err))
}

func TestListResidents_SupersededFetchIsCancelled(t *testing.T) {
	release := make(chan struct{})
	fb := &fakeBackend{residents: rawResidents(map[string]any{"resident_id": "A"}), listBlock: release}
	svc, _ := newTestResidentService(fb, nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.ListResidents(context.Background(), ListResidentsRequest{Session: "s1"})
		firstErr <- err
	}()
	require.Eventually(t, func() bool {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.listCalls == 1
	}, time.Second, 5*time.Millisecond)

	resp, err := svc.ListResidents(context.Background(), ListResidentsRequest{Session: "s1"})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	err = <-firstErr
	assert.Equal(t, backend.KindCancelled, backend.Classify(err))
	assert.Equal(t, 0, svc.latest.InFlight())
	close(release)
}

func TestListResidents_DifferentCallersDoNotCancel(t *testing.T) {
	release := make(chan struct{})
	fb := &fakeBackend{residents: rawResidents(map[string]any{"resident_id": "A"}), listBlock: release}
	svc, _ := newTestResidentService(fb, nil)

	firstErr := make(chan error, 1)
	go func() {
		ctx := backend.WithAuthToken(context.Background(), "admin-tok")
		_, err := svc.ListResidents(ctx, ListResidentsRequest{})
		firstErr <- err
	}()
	require.Eventually(t, func() bool {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.listCalls == 1
	}, time.Second, 5*time.Millisecond)

	// no session header on either request
	ctx := backend.WithAuthToken(context.Background(), "staff-tok")
	_, err := svc.ListResidents(ctx, ListResidentsRequest{})
	require.NoError(t, err)

	close(release)
	assert.NoError(t, <-firstErr)
}

func TestListResidents_FilterChangeResetsPage(t *testing.T) {
	items := make([]map[string]any, 0, 30)
	for i := 0; i < 30; i++ {
		items = append(items, map[string]any{"id": i + 1, "resident_id": "R", "first_name": "Res", "last_modified": "2024-12-01"})
	}
	fb := &fakeBackend{residents: rawResidents(items...)}
	svc, _ := newTestResidentService(fb, nil)
	ctx := backend.WithAuthToken(context.Background(), "admin-tok")

	resp, err := svc.ListResidents(ctx, ListResidentsRequest{Session: "s1", Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Pagination.Page)

	resp, err = svc.ListResidents(ctx, ListResidentsRequest{Session: "s1", Page: 3, Filter: ResidentFilter{Search: "res"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page, "search changed")

	resp, err = svc.ListResidents(ctx, ListResidentsRequest{Session: "s1", Page: 2, Filter: ResidentFilter{Search: "res"}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Pagination.Page)

	resp, err = svc.ListResidents(ctx, ListResidentsRequest{Session: "s1", Page: 2, Size: 20, Filter: ResidentFilter{Search: "res"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page, "page size changed")
	assert.Equal(t, 20, resp.Pagination.Size)

	// another session keeps its own cursor
	resp, err = svc.ListResidents(ctx, ListResidentsRequest{Session: "s2", Page: 2, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Pagination.Page)
}

func TestGetResident_DeniedDetailsHidden(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(map[string]any{
		"resident_id": "D-1", "first_name": "Ana", "email": "ana@example.com", "verification_status": "denied",
	})}
	svc, _ := newTestResidentService(fb, nil)
	item, err := svc.GetResident(context.Background(), "D-1")
	require.NoError(t, err)
	assert.True(t, item.DetailsHidden)
	assert.Empty(t, item.FirstName)
	assert.Empty(t, item.Email)
	assert.Empty(t, item.FullName)
	assert.Equal(t, "D-1", item.ResidentID)
}

func TestDisableResident_RequiresReason(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(map[string]any{"resident_id": "A", "disable_reason": "moved"})}
	kv := store.NewMemoryKV()
	key := snapshotKey(backend.ScopeAdmin, callerID(backend.WithAuthToken(context.Background(), "admin-tok")))
	require.NoError(t, kv.Set(context.Background(), key, "[]", 0))
	svc, _ := newTestResidentService(fb, kv)

	_, err := svc.DisableResident(context.Background(), "A", "  ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "disable_reason", verr.Field)

	item, err := svc.DisableResident(context.Background(), "A", "moved")
	require.NoError(t, err)
	assert.True(t, item.Disabled)
	_, err = kv.Get(context.Background(), key)
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestUpdateResident_DropsServerOwnedFields(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(map[string]any{"resident_id": "A", "first_name": "Jose"})}
	svc, _ := newTestResidentService(fb, nil)

	_, err := svc.UpdateResident(context.Background(), "A", map[string]any{"resident_id": "B", "update_status": "Active"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, fb.updates)

	fields := map[string]any{"mobile_number": "09171234567", "verification_status": "approved"}
	_, err = svc.UpdateResident(context.Background(), "A", fields)
	require.NoError(t, err)
	require.Len(t, fb.updates, 1)
	assert.Equal(t, map[string]any{"mobile_number": "09171234567"}, fb.updates[0])
	// caller's map is left untouched
	assert.Contains(t, fields, "verification_status")
}

func TestExportResidents_EmptyNotifies(t *testing.T) {
	fb := &fakeBackend{residents: []json.RawMessage{}}
	svc, rec := newTestResidentService(fb, nil)
	_, err := svc.ExportResidents(context.Background(), ExportResidentsRequest{Format: export.FormatCSV})
	assert.ErrorIs(t, err, export.ErrNoData)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notify.LevelInfo, rec.Notices()[0].Level)
}

func TestExportResidents_MalformedAborts(t *testing.T) {
	fb := &fakeBackend{residents: []json.RawMessage{json.RawMessage(`{"resident_id":"A"}`), json.RawMessage(`"oops"`)}}
	svc, rec := newTestResidentService(fb, nil)
	file, err := svc.ExportResidents(context.Background(), ExportResidentsRequest{Format: export.FormatCSV})
	assert.Nil(t, file)
	var verr *export.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, verr.Row)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notify.LevelError, rec.Notices()[0].Level)
}

func TestExportResidents_Filtered(t *testing.T) {
	fb := &fakeBackend{residents: rawResidents(
		map[string]any{"resident_id": "A", "first_name": "Old", "last_modified": "2019-01-01"},
		map[string]any{"resident_id": "B", "first_name": "New", "last_modified": "2024-12-01"},
	)}
	svc, _ := newTestResidentService(fb, nil)
	file, err := svc.ExportResidents(context.Background(), ExportResidentsRequest{
		Format: export.FormatCSV,
		Filter: ResidentFilter{Status: "active"},
	})
	require.NoError(t, err)
	assert.Equal(t, "residents_2025-01-15.csv", file.Name)
	assert.Contains(t, string(file.Data), "New")
	assert.NotContains(t, string(file.Data), "Old")
}
