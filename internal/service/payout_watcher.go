package service

import (
	"context"
	"sync"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/domain"

	"go.uber.org/zap"
)

// RefetchFunc reloads the tracking object of one beneficiary
type RefetchFunc func(ctx context.Context, beneficiaryID string) (*domain.BenefitTracking, error)

// PayoutWatcher refetches a beneficiary's tracking once its payout time is
// reached while stage 2 is active. A timer aims at the payout time and a
// periodic recheck covers timers that fire late or not at all. Each
// (beneficiary, payout time) pair fires at most once.
type PayoutWatcher struct {
	refetch   RefetchFunc
	onRefresh func(ctx context.Context, beneficiaryID string, t *domain.BenefitTracking)
	recheck   time.Duration
	logger    *zap.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	watches map[string]*payoutWatch
	fired   map[string]time.Time
}

type payoutWatch struct {
	payout time.Time
	// token of the caller that armed the watch; the refetch runs as them
	token string
	stop  chan struct{}
}

func NewPayoutWatcher(refetch RefetchFunc, recheck time.Duration, logger *zap.Logger) *PayoutWatcher {
	if recheck <= 0 {
		recheck = 60 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PayoutWatcher{
		refetch: refetch,
		recheck: recheck,
		logger:  logger,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		watches: make(map[string]*payoutWatch),
		fired:   make(map[string]time.Time),
	}
}

// OnRefresh registers the callback receiving the refetched object
func (w *PayoutWatcher) OnRefresh(fn func(ctx context.Context, beneficiaryID string, t *domain.BenefitTracking)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onRefresh = fn
}

// Watch arms (or re-arms) the watch for t and reports whether one is active.
// A tracking object without an active stage 2 or a payout date clears it.
// The bearer token in ctx is kept for the refetch.
func (w *PayoutWatcher) Watch(ctx context.Context, beneficiaryID string, t *domain.BenefitTracking) bool {
	if t.ActiveStage() != domain.StagePayout {
		w.Stop(beneficiaryID)
		return false
	}
	payout, ok := t.PayoutTime()
	if !ok {
		w.Stop(beneficiaryID)
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.Err() != nil {
		return false
	}
	if done, ok := w.fired[beneficiaryID]; ok && done.Equal(payout) {
		return false
	}
	token := backend.AuthToken(ctx)
	if cur, ok := w.watches[beneficiaryID]; ok {
		if cur.payout.Equal(payout) {
			if token != "" {
				cur.token = token
			}
			return true
		}
		close(cur.stop)
	}
	pw := &payoutWatch{payout: payout, token: token, stop: make(chan struct{})}
	w.watches[beneficiaryID] = pw

	w.wg.Add(1)
	go w.run(beneficiaryID, pw)
	w.logger.Debug("Payout watch armed",
		zap.String("beneficiary_id", beneficiaryID),
		zap.Time("payout", payout),
	)
	return true
}

func (w *PayoutWatcher) run(beneficiaryID string, pw *payoutWatch) {
	defer w.wg.Done()

	delay := pw.payout.Sub(w.now())
	if delay < 0 {
		delay = 0
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	ticker := time.NewTicker(w.recheck)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-pw.stop:
			return
		case <-timer.C:
			w.fire(beneficiaryID, pw)
			return
		case <-ticker.C:
			if !w.now().Before(pw.payout) {
				w.fire(beneficiaryID, pw)
				return
			}
		}
	}
}

func (w *PayoutWatcher) fire(beneficiaryID string, pw *payoutWatch) {
	w.mu.Lock()
	if w.watches[beneficiaryID] != pw {
		w.mu.Unlock()
		return
	}
	delete(w.watches, beneficiaryID)
	w.fired[beneficiaryID] = pw.payout
	onRefresh := w.onRefresh
	ctx := w.ctx
	if pw.token != "" {
		ctx = backend.WithAuthToken(ctx, pw.token)
	}
	w.mu.Unlock()

	t, err := w.refetch(ctx, beneficiaryID)
	if err != nil {
		w.logger.Warn("Payout refetch failed",
			zap.String("beneficiary_id", beneficiaryID),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("Tracking refreshed at payout time", zap.String("beneficiary_id", beneficiaryID))
	if onRefresh != nil {
		onRefresh(ctx, beneficiaryID, t)
	}
}

// Stop clears the watch of one beneficiary
func (w *PayoutWatcher) Stop(beneficiaryID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cur, ok := w.watches[beneficiaryID]; ok {
		close(cur.stop)
		delete(w.watches, beneficiaryID)
	}
}

// Active number of armed watches
func (w *PayoutWatcher) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watches)
}

// Close stops every watch and waits for in-progress refetches
func (w *PayoutWatcher) Close() {
	w.cancel()
	w.mu.Lock()
	for id, cur := range w.watches {
		close(cur.stop)
		delete(w.watches, id)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
