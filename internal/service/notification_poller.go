package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
	"github.com/Maristella28/Bms-1125-sub002/internal/notify"

	"go.uber.org/zap"
)

// NotificationSource notification feed of the records backend
type NotificationSource interface {
	Notifications(ctx context.Context) ([]domain.Notification, error)
}

// NotificationPoller refreshes the feed on a fixed interval and forwards
// entries it has not seen before. The first poll only primes the seen set.
type NotificationPoller struct {
	source   NotificationSource
	notifier notify.Notifier
	interval time.Duration
	logger   *zap.Logger

	mu     sync.RWMutex
	seen   map[int64]struct{}
	latest []domain.Notification
	primed bool
}

func NewNotificationPoller(source NotificationSource, notifier notify.Notifier, interval time.Duration, logger *zap.Logger) *NotificationPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &NotificationPoller{
		source:   source,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		seen:     make(map[int64]struct{}),
		latest:   []domain.Notification{},
	}
}

// Run polls immediately and then every interval until ctx is done
func (p *NotificationPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Notification poller started", zap.Duration("interval", p.interval))
	for {
		if err := p.Poll(ctx); err != nil && backend.Classify(err) != backend.KindCancelled {
			p.logger.Warn("Notification poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			p.logger.Info("Notification poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll fetches the feed once
func (p *NotificationPoller) Poll(ctx context.Context) error {
	items, err := p.source.Notifications(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: notification poll", backend.ErrCancelled)
	}

	p.mu.Lock()
	var fresh []domain.Notification
	for _, n := range items {
		if _, ok := p.seen[n.ID]; ok {
			continue
		}
		p.seen[n.ID] = struct{}{}
		if p.primed && !n.IsRead {
			fresh = append(fresh, n)
		}
	}
	p.primed = true
	p.latest = items
	p.mu.Unlock()

	for _, n := range fresh {
		p.notifier.Notify(ctx, notify.Notice{
			Level:   levelFor(n.Type),
			Title:   n.Title,
			Message: n.Message,
			Time:    time.Now(),
		})
	}
	return nil
}

// Latest feed as of the last successful poll
func (p *NotificationPoller) Latest() []domain.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Notification, len(p.latest))
	copy(out, p.latest)
	return out
}

// Unread count of unread entries in the latest feed
func (p *NotificationPoller) Unread() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, item := range p.latest {
		if !item.IsRead {
			n++
		}
	}
	return n
}

func levelFor(kind string) notify.Level {
	switch notify.Level(kind) {
	case notify.LevelSuccess, notify.LevelWarning, notify.LevelError:
		return notify.Level(kind)
	}
	return notify.LevelInfo
}
