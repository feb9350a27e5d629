// Package rulesync rebuilds the moderation engine when rule sources change
// and swaps it in atomically.
package rulesync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/telemetry"
)

// FileRules returns the extensions read from the rules file.
type FileRules func() moderation.Extensions

// TermSource loads operator-managed terms.
type TermSource interface {
	Load(ctx context.Context) (moderation.Extensions, error)
}

// Syncer combines the rules file with stored terms into a fresh engine.
// The last successful term snapshot is kept when the store is unreachable.
type Syncer struct {
	file    FileRules
	terms   TermSource
	engines *moderation.Holder
	metrics *telemetry.Metrics

	mu       sync.Mutex
	lastTerm moderation.Extensions
}

// New creates a syncer. terms and metrics may be nil.
func New(file FileRules, terms TermSource, engines *moderation.Holder, metrics *telemetry.Metrics) *Syncer {
	return &Syncer{file: file, terms: terms, engines: engines, metrics: metrics}
}

// Rebuild builds and stores a new engine. trigger labels the reload in
// metrics and logs. The engine is replaced even when the term store
// fails; the returned error reports that failure.
func (s *Syncer) Rebuild(ctx context.Context, trigger string) error {
	var termErr error

	s.mu.Lock()
	if s.terms != nil {
		ext, err := s.terms.Load(ctx)
		if err != nil {
			termErr = err
			slog.Warn("term store unavailable, keeping previous terms", "error", err)
		} else {
			s.lastTerm = ext
		}
	}
	// Build and publish under mu so concurrent rebuilds store in load order.
	rules := moderation.NewRuleSet(s.file().Merge(s.lastTerm))
	s.engines.Store(moderation.New(rules))
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordRuleReload(trigger, termErr)
	}
	slog.Info("moderation rules rebuilt", "trigger", trigger, "tables", rules.Stats())
	return termErr
}

// Run refreshes stored terms every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	if s.terms == nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Rebuild(ctx, "term_store")
		}
	}
}
