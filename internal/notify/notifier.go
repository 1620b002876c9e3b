package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level notice severity shown by the console
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice a user-visible, non-fatal message
type Notice struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier receives notices from helpers that have no UI of their own
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// ZapNotifier writes notices to the log
type ZapNotifier struct {
	logger *zap.Logger
}

func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	return &ZapNotifier{logger: logger}
}

func (z *ZapNotifier) Notify(_ context.Context, n Notice) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	if n.Level == LevelError {
		z.logger.Warn("Notice", fields...)
		return
	}
	z.logger.Info("Notice", fields...)
}

// Publisher subset of the MQTT client used for fan-out
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier publishes notices as JSON to a topic
type MQTTNotifier struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *zap.Logger
}

func NewMQTTNotifier(pub Publisher, topic string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, topic: topic, qos: qos, logger: logger}
}

func (m *MQTTNotifier) Notify(_ context.Context, n Notice) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		m.logger.Error("Failed to marshal notice", zap.Error(err))
		return
	}
	if err := m.pub.Publish(m.topic, m.qos, false, payload); err != nil {
		m.logger.Warn("Failed to publish notice",
			zap.String("topic", m.topic),
			zap.Error(err),
		)
	}
}

// Multi fans a notice out to every notifier
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, x := range m {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// Recorder keeps notices in memory; the console reads recent ones back
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	limit   int
}

// NewRecorder keeps at most limit notices, 0 means unbounded
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	if r.limit > 0 && len(r.notices) > r.limit {
		r.notices = r.notices[len(r.notices)-r.limit:]
	}
}

// Notices copy of the recorded notices, oldest first
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
