package content

import (
	"context"
	"time"

	"github.com/af-corp/textguard/internal/filter"
	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/telemetry"
	"github.com/af-corp/textguard/internal/types"
)

const name = "content"

// Filter runs the moderation engine as a chat filter. Rejections block;
// accepted but vague messages are flagged and marked on the request.
type Filter struct {
	engines *moderation.Holder
	enabled func() bool
	metrics *telemetry.Metrics
}

// New creates a content filter reading the current engine from engines.
// metrics may be nil.
func New(engines *moderation.Holder, enabled func() bool, metrics *telemetry.Metrics) *Filter {
	return &Filter{engines: engines, enabled: enabled, metrics: metrics}
}

func (f *Filter) Name() string  { return name }
func (f *Filter) Enabled() bool { return f.enabled() }

// ScanRequest implements filter.Filter.
func (f *Filter) ScanRequest(_ context.Context, req *types.ChatRequest) filter.Result {
	engine := f.engines.Load()

	start := time.Now()
	v := engine.Filter(req.Text)
	if f.metrics != nil {
		f.metrics.RecordModeration("chat", v, time.Since(start))
	}

	if !v.Accepted {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: name,
			Message:    v.Detail,
			Category:   string(v.Category),
		}
	}

	if engine.IsUnclear(req.Text) {
		req.Unclear = true
		return filter.Result{Action: filter.ActionFlag, FilterName: name, Message: "unclear request"}
	}

	return filter.Result{Action: filter.ActionPass, FilterName: name}
}
