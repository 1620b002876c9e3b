package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
)

var errUnreachable = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

// fakeBackend in-memory stand-in for the records backend
type fakeBackend struct {
	mu sync.Mutex

	residents    []json.RawMessage
	residentsErr error
	listBlock    chan struct{}
	listCalls    int

	beneficiary    *domain.Beneficiary
	beneficiaryErr error
	beneficiaryN   int
	tracking       []*domain.BenefitTracking
	trackingN      int
	receiptErr     error
	receiptForms   []backend.ReceiptForm

	notifications []domain.Notification
	updates       []map[string]any
}

func (f *fakeBackend) ListResidents(ctx context.Context, _ backend.Scope) ([]json.RawMessage, error) {
	f.mu.Lock()
	f.listCalls++
	block := f.listBlock
	f.listBlock = nil
	out, err := f.residents, f.residentsErr
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, backend.ErrCancelled
		}
	}
	return out, err
}

func (f *fakeBackend) GetResident(_ context.Context, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, raw := range f.residents {
		r, err := domain.DecodeResident(raw)
		if err == nil && r.ResidentID == id {
			return raw, nil
		}
	}
	return nil, &backend.APIError{Status: 404, Message: "Resident not found"}
}

func (f *fakeBackend) UpdateResident(ctx context.Context, id string, fields map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	f.updates = append(f.updates, fields)
	f.mu.Unlock()
	return f.GetResident(ctx, id)
}

func (f *fakeBackend) ApproveVerification(ctx context.Context, id string) (json.RawMessage, error) {
	return f.GetResident(ctx, id)
}

func (f *fakeBackend) DenyVerification(ctx context.Context, id, _ string) (json.RawMessage, error) {
	return f.GetResident(ctx, id)
}

func (f *fakeBackend) DisableResident(ctx context.Context, id, _ string) (json.RawMessage, error) {
	return f.GetResident(ctx, id)
}

func (f *fakeBackend) MyBenefits(context.Context) ([]domain.Beneficiary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beneficiary == nil {
		return []domain.Beneficiary{}, nil
	}
	return []domain.Beneficiary{*f.beneficiary}, nil
}

func (f *fakeBackend) Beneficiary(context.Context, string) (*domain.Beneficiary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beneficiaryN++
	return f.beneficiary, f.beneficiaryErr
}

// Tracking returns the queued objects in order, repeating the last one
func (f *fakeBackend) Tracking(context.Context, string) (*domain.BenefitTracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackingN++
	if len(f.tracking) == 0 {
		return &domain.BenefitTracking{Stages: []domain.TrackingStage{}}, nil
	}
	t := f.tracking[0]
	if len(f.tracking) > 1 {
		f.tracking = f.tracking[1:]
	}
	return t, nil
}

func (f *fakeBackend) ValidateReceipt(_ context.Context, _ string, form backend.ReceiptForm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptForms = append(f.receiptForms, form)
	return f.receiptErr
}

func (f *fakeBackend) Program(context.Context, string) (json.RawMessage, error) {
	return json.RawMessage(`{"id":1}`), nil
}

func (f *fakeBackend) ProgramAnnouncements(context.Context, string) ([]json.RawMessage, error) {
	return []json.RawMessage{}, nil
}

func (f *fakeBackend) ApplicationForms(context.Context, string) ([]json.RawMessage, error) {
	return []json.RawMessage{}, nil
}

func (f *fakeBackend) Notifications(context.Context) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out, nil
}

func (f *fakeBackend) counts() (tracking, beneficiary, receipts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trackingN, f.beneficiaryN, len(f.receiptForms)
}

func rawResidents(items ...map[string]any) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, _ := json.Marshal(it)
		out = append(out, b)
	}
	return out
}

func strPtr(s string) *string { return &s }
