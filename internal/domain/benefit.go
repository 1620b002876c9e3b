package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Tracking stages as numbered by the backend
const (
	StageApplication = 1
	StagePayout      = 2
	StageReceipt     = 3
	StageCompleted   = 4
)

// StageState display state derived purely from the server booleans
type StageState string

const (
	StageStateCompleted StageState = "completed"
	StageStateActive    StageState = "active"
	StageStateFuture    StageState = "future"
)

// TrackingStage one entry of tracking.stages
type TrackingStage struct {
	Stage          int             `json:"stage"`
	Completed      bool            `json:"completed"`
	Active         bool            `json:"active"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	PayoutDate     *string         `json:"payout_date,omitempty"`
	SubmissionData json.RawMessage `json:"submission_data,omitempty"`
	ReceiptNumber  *string         `json:"receipt_number,omitempty"`
	ProofURL       *string         `json:"proof_url,omitempty"`
	ReceivedAt     *string         `json:"received_at,omitempty"`
}

// State completed wins over active; neither means future
func (s TrackingStage) State() StageState {
	switch {
	case s.Completed:
		return StageStateCompleted
	case s.Active:
		return StageStateActive
	default:
		return StageStateFuture
	}
}

// BenefitTracking server-owned tracking object for one beneficiary
type BenefitTracking struct {
	BeneficiaryID  int64           `json:"beneficiary_id,omitempty"`
	ProgramID      int64           `json:"program_id,omitempty"`
	ProgramName    string          `json:"program_name,omitempty"`
	AssistanceType string          `json:"assistance_type,omitempty"`
	Stages         []TrackingStage `json:"stages"`
	PayoutDate     *string         `json:"payout_date,omitempty"`
}

// ActiveStage first stage flagged active, 0 when none
func (t *BenefitTracking) ActiveStage() int {
	if t == nil {
		return 0
	}
	for _, s := range t.Stages {
		if s.Active && !s.Completed {
			return s.Stage
		}
	}
	return 0
}

// PayoutTime parsed payout_date, falling back to the one attached to stage 2
func (t *BenefitTracking) PayoutTime() (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.PayoutDate != nil {
		if ts, ok := ParseTimestamp(*t.PayoutDate); ok {
			return ts, true
		}
	}
	for _, s := range t.Stages {
		if s.Stage == StagePayout && s.PayoutDate != nil {
			if ts, ok := ParseTimestamp(*s.PayoutDate); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// StageView render model for one stage
type StageView struct {
	Stage       int        `json:"stage"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	State       StageState `json:"state"`
}

// Views renders each stage from its own flags, in server order
func (t *BenefitTracking) Views() []StageView {
	if t == nil {
		return []StageView{}
	}
	views := make([]StageView, 0, len(t.Stages))
	for _, s := range t.Stages {
		views = append(views, StageView{
			Stage:       s.Stage,
			Title:       s.Title,
			Description: s.Description,
			State:       s.State(),
		})
	}
	return views
}

// Program assistance program summary
type Program struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	AssistanceType string   `json:"assistance_type"`
	Amount         *float64 `json:"amount,omitempty"`
}

// Beneficiary a resident's enrollment in a program
type Beneficiary struct {
	ID             int64    `json:"id"`
	ProgramID      int64    `json:"program_id"`
	Status         string   `json:"status"`
	AssistanceType string   `json:"assistance_type,omitempty"`
	Program        *Program `json:"program,omitempty"`
}

// AssistanceKind program's assistance type, own field first
func (b *Beneficiary) AssistanceKind() string {
	if b == nil {
		return ""
	}
	if b.AssistanceType != "" {
		return b.AssistanceType
	}
	if b.Program != nil {
		return b.Program.AssistanceType
	}
	return ""
}

var nonMonetaryTypes = map[string]struct{}{
	"non_monetary": {},
	"nonmonetary":  {},
	"in_kind":      {},
	"goods":        {},
	"services":     {},
	"service":      {},
	"relief_goods": {},
}

// IsNonMonetary true for any non-monetary assistance variant
func IsNonMonetary(assistanceType string) bool {
	key := strings.ToLower(strings.TrimSpace(assistanceType))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	_, ok := nonMonetaryTypes[key]
	return ok
}

// Notification one entry of the notification feed
type Notification struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Type      string  `json:"type,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// ActivityLog one audit entry
type ActivityLog struct {
	ID          int64           `json:"id"`
	UserID      *int64          `json:"user_id"`
	UserName    string          `json:"user_name,omitempty"`
	UserRole    string          `json:"user_role,omitempty"`
	Action      string          `json:"action"`
	ModelType   string          `json:"model_type,omitempty"`
	ModelID     *int64          `json:"model_id,omitempty"`
	Description string          `json:"description"`
	IPAddress   string          `json:"ip_address,omitempty"`
	Changes     json.RawMessage `json:"changes,omitempty"`
	CreatedAt   string          `json:"created_at"`
}
