package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/notice"
	"github.com/af-corp/textguard/internal/telemetry"
)

// ModerationRequest is published on moderation.check.
type ModerationRequest struct {
	SessionID string `json:"session_id"`
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	Ts        int64  `json:"ts"`
}

// ModerationResult is published back for every request.
type ModerationResult struct {
	SessionID string              `json:"session_id"`
	ChatID    string              `json:"chat_id"`
	Blocked   bool                `json:"blocked"`
	Category  moderation.Category `json:"category,omitempty"`
	Label     string              `json:"label,omitempty"`
	Detail    string              `json:"detail,omitempty"`
	Notice    string              `json:"notice,omitempty"`
	Unclear   bool                `json:"unclear"`
}

// Publisher sends raw payloads to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Worker answers moderation requests with the current engine.
type Worker struct {
	engines *moderation.Holder
	pub     Publisher
	metrics *telemetry.Metrics
}

// NewWorker creates a worker. metrics may be nil.
func NewWorker(engines *moderation.Holder, pub Publisher, metrics *telemetry.Metrics) *Worker {
	return &Worker{engines: engines, pub: pub, metrics: metrics}
}

// Check moderates one request.
func (w *Worker) Check(req ModerationRequest) ModerationResult {
	engine := w.engines.Load()

	start := time.Now()
	v := engine.Filter(req.Text)
	if w.metrics != nil {
		w.metrics.RecordModeration("nats", v, time.Since(start))
	}

	res := ModerationResult{SessionID: req.SessionID, ChatID: req.ChatID, Blocked: !v.Accepted}
	if v.Accepted {
		res.Unclear = engine.IsUnclear(req.Text)
		return res
	}
	res.Category = v.Category
	res.Label = v.Category.Label()
	res.Detail = v.Detail
	res.Notice = notice.For(v)
	return res
}

// Handle decodes a request, moderates it and publishes the result on the
// session subject, or on reply when set.
func (w *Worker) Handle(data []byte, reply string) error {
	var req ModerationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("unmarshal moderation request: %w", err)
	}
	if req.SessionID == "" && reply == "" {
		return fmt.Errorf("moderation request without session_id")
	}

	res := w.Check(req)
	if res.Blocked {
		slog.Info("message flagged",
			"session_id", req.SessionID,
			"chat_id", req.ChatID,
			"category", res.Category,
			"detail", res.Detail,
		)
	} else {
		slog.Debug("message clean", "session_id", req.SessionID, "chat_id", req.ChatID)
	}

	out, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal moderation result: %w", err)
	}

	subject := reply
	if subject == "" {
		subject = ResultSubject(req.SessionID)
	}
	if err := w.pub.Publish(subject, out); err != nil {
		return fmt.Errorf("publish moderation result: %w", err)
	}
	return nil
}
