package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
	"github.com/Maristella28/Bms-1125-sub002/internal/notify"
	"github.com/Maristella28/Bms-1125-sub002/internal/store"

	"go.uber.org/zap"
)

// MaxProofSize largest accepted proof upload
const MaxProofSize = 10 << 20

// ReceiptRequiredMessage shown when a monetary receipt number is missing
const ReceiptRequiredMessage = "Please enter your receipt number"

var allowedProofTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/jpg":       {},
	"application/pdf": {},
}

// BenefitBackend benefit and program endpoints of the records backend
type BenefitBackend interface {
	MyBenefits(ctx context.Context) ([]domain.Beneficiary, error)
	Beneficiary(ctx context.Context, id string) (*domain.Beneficiary, error)
	Tracking(ctx context.Context, id string) (*domain.BenefitTracking, error)
	ValidateReceipt(ctx context.Context, id string, form backend.ReceiptForm) error
	Program(ctx context.Context, id string) (json.RawMessage, error)
	ProgramAnnouncements(ctx context.Context, programID string) ([]json.RawMessage, error)
	ApplicationForms(ctx context.Context, programID string) ([]json.RawMessage, error)
}

// BenefitService benefit tracking, receipt submission and program pages
type BenefitService interface {
	MyBenefits(ctx context.Context) ([]domain.Beneficiary, error)
	GetTracking(ctx context.Context, beneficiaryID string) (*TrackingView, error)
	SubmitReceipt(ctx context.Context, beneficiaryID string, sub ReceiptSubmission) (*TrackingView, error)
	Program(ctx context.Context, id string) (json.RawMessage, error)
	ProgramAnnouncements(ctx context.Context, programID string) ([]json.RawMessage, error)
	ApplicationForms(ctx context.Context, programID string) ([]json.RawMessage, error)
}

type benefitService struct {
	backend  BenefitBackend
	kv       store.KV
	watcher  *PayoutWatcher
	notifier notify.Notifier
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewBenefitService wires the payout watcher's refresh into the tracking cache
func NewBenefitService(b BenefitBackend, kv store.KV, watcher *PayoutWatcher, notifier notify.Notifier, cacheTTL time.Duration, logger *zap.Logger) BenefitService {
	s := &benefitService{
		backend:  b,
		kv:       kv,
		watcher:  watcher,
		notifier: notifier,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
	if watcher != nil {
		watcher.OnRefresh(s.payoutRefreshed)
	}
	return s
}

// ReceiptSubmission input of SubmitReceipt. The beneficiary's program decides
// the assistance type; AssistanceType is used only when the program has none.
type ReceiptSubmission struct {
	ReceiptNumber  *string
	Comment        string
	Proof          *backend.UploadFile
	AssistanceType string
}

// TrackingView tracking object plus render-ready stages
type TrackingView struct {
	Tracking    *domain.BenefitTracking `json:"tracking"`
	Stages      []domain.StageView      `json:"stages"`
	ActiveStage int                     `json:"active_stage"`
	NonMonetary bool                    `json:"non_monetary"`
	// PayoutWatch a refetch is scheduled for the payout time
	PayoutWatch bool `json:"payout_watch"`
}

func trackingKey(id string) string {
	return "benefits:tracking:" + id
}

func (s *benefitService) MyBenefits(ctx context.Context) ([]domain.Beneficiary, error) {
	return s.backend.MyBenefits(ctx)
}

func (s *benefitService) GetTracking(ctx context.Context, beneficiaryID string) (*TrackingView, error) {
	t, err := s.backend.Tracking(ctx, beneficiaryID)
	if err != nil {
		return nil, err
	}
	return s.accept(ctx, beneficiaryID, t), nil
}

// SubmitReceipt validates locally, posts the receipt and returns the refetched
// tracking object. Validation failures never reach the backend.
func (s *benefitService) SubmitReceipt(ctx context.Context, beneficiaryID string, sub ReceiptSubmission) (*TrackingView, error) {
	if err := validateProof(sub.Proof); err != nil {
		return nil, err
	}

	assistanceType, err := s.assistanceType(ctx, beneficiaryID, sub.AssistanceType)
	if err != nil {
		return nil, err
	}

	form := backend.ReceiptForm{Comment: strings.TrimSpace(sub.Comment), Proof: sub.Proof}
	if !domain.IsNonMonetary(assistanceType) {
		if sub.ReceiptNumber == nil || strings.TrimSpace(*sub.ReceiptNumber) == "" {
			return nil, &ValidationError{Field: "receipt_number", Message: ReceiptRequiredMessage}
		}
		receipt := strings.TrimSpace(*sub.ReceiptNumber)
		form.ReceiptNumber = &receipt
	}

	if err := s.backend.ValidateReceipt(ctx, beneficiaryID, form); err != nil {
		return nil, err
	}
	s.logger.Info("Receipt submitted",
		zap.String("beneficiary_id", beneficiaryID),
		zap.Bool("non_monetary", form.ReceiptNumber == nil),
	)

	t, err := s.backend.Tracking(ctx, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("receipt accepted but tracking refresh failed: %w", err)
	}
	return s.accept(ctx, beneficiaryID, t), nil
}

func (s *benefitService) Program(ctx context.Context, id string) (json.RawMessage, error) {
	return s.backend.Program(ctx, id)
}

func (s *benefitService) ProgramAnnouncements(ctx context.Context, programID string) ([]json.RawMessage, error) {
	return s.backend.ProgramAnnouncements(ctx, programID)
}

func (s *benefitService) ApplicationForms(ctx context.Context, programID string) ([]json.RawMessage, error) {
	return s.backend.ApplicationForms(ctx, programID)
}

// assistanceType cached tracking, then the beneficiary record. The caller's
// value only counts when the backend records no type at all.
func (s *benefitService) assistanceType(ctx context.Context, beneficiaryID, fallback string) (string, error) {
	if t, ok := s.cached(ctx, beneficiaryID); ok && t.AssistanceType != "" {
		return t.AssistanceType, nil
	}
	b, err := s.backend.Beneficiary(ctx, beneficiaryID)
	if err != nil {
		return "", err
	}
	if kind := b.AssistanceKind(); kind != "" {
		return kind, nil
	}
	if fallback != "" {
		s.logger.Debug("Beneficiary has no assistance type, using submitted value",
			zap.String("beneficiary_id", beneficiaryID),
			zap.String("assistance_type", fallback),
		)
	}
	return fallback, nil
}

// accept replaces the cached tracking wholesale and (re)arms the payout watch
func (s *benefitService) accept(ctx context.Context, beneficiaryID string, t *domain.BenefitTracking) *TrackingView {
	s.store(ctx, beneficiaryID, t)
	watching := false
	if s.watcher != nil {
		watching = s.watcher.Watch(ctx, beneficiaryID, t)
	}
	return &TrackingView{
		Tracking:    t,
		Stages:      t.Views(),
		ActiveStage: t.ActiveStage(),
		NonMonetary: domain.IsNonMonetary(t.AssistanceType),
		PayoutWatch: watching,
	}
}

func (s *benefitService) payoutRefreshed(ctx context.Context, beneficiaryID string, t *domain.BenefitTracking) {
	s.accept(ctx, beneficiaryID, t)
	if s.notifier != nil && t.ActiveStage() != domain.StagePayout {
		s.notifier.Notify(ctx, notify.Notice{
			Level:   notify.LevelInfo,
			Title:   "Benefit update",
			Message: "Your payout status has been updated",
			Time:    time.Now(),
		})
	}
}

func (s *benefitService) store(ctx context.Context, beneficiaryID string, t *domain.BenefitTracking) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, trackingKey(beneficiaryID), string(data), s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache tracking", zap.String("beneficiary_id", beneficiaryID), zap.Error(err))
	}
}

func (s *benefitService) cached(ctx context.Context, beneficiaryID string) (*domain.BenefitTracking, bool) {
	if s.kv == nil {
		return nil, false
	}
	val, err := s.kv.Get(ctx, trackingKey(beneficiaryID))
	if err != nil {
		return nil, false
	}
	var t domain.BenefitTracking
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return nil, false
	}
	return &t, true
}

func validateProof(f *backend.UploadFile) error {
	if f == nil {
		return nil
	}
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if _, ok := allowedProofTypes[ct]; !ok {
		return &ValidationError{Field: "proof_file", Message: "Only JPG, PNG or PDF files are allowed"}
	}
	if len(f.Data) > MaxProofSize {
		return &ValidationError{Field: "proof_file", Message: "File size must not exceed 10MB"}
	}
	return nil
}
