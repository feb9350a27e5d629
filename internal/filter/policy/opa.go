package policy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/open-policy-agent/opa/rego"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/filter"
	"github.com/af-corp/textguard/internal/types"
)

const dispatchQuery = "[data.textguard.dispatch.allow, data.textguard.dispatch.reason]"

// PolicyInput is the data sent to OPA for evaluation.
type PolicyInput struct {
	User    PolicyUser    `json:"user"`
	Message PolicyMessage `json:"message"`
	Time    PolicyTime    `json:"time"`
}

type PolicyUser struct {
	ID string `json:"id"`
}

type PolicyMessage struct {
	Chars   int  `json:"chars"`
	Words   int  `json:"words"`
	Unclear bool `json:"unclear"`
}

type PolicyTime struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

// Evaluator decides whether an accepted message may be dispatched to the
// assistant. It implements filter.Filter.
type Evaluator struct {
	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
	cfg      func() config.PolicyConfig
}

// NewEvaluator creates a policy evaluator. Call Load() to compile policies.
func NewEvaluator(cfg func() config.PolicyConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

func (e *Evaluator) Name() string  { return "policy" }
func (e *Evaluator) Enabled() bool { return e.cfg().Enabled }

// Load compiles Rego modules from the bundle path.
func (e *Evaluator) Load() error {
	cfg := e.cfg()
	modules, err := LoadRegoFiles(cfg.BundlePath)
	if err != nil {
		return fmt.Errorf("load rego files: %w", err)
	}
	if len(modules) == 0 {
		slog.Warn("no rego files found", "path", cfg.BundlePath)
		return nil
	}
	if err := e.LoadFromModules(modules); err != nil {
		return err
	}
	slog.Info("opa policies loaded", "modules", len(modules))
	return nil
}

// LoadFromModules compiles policies from provided module sources.
func (e *Evaluator) LoadFromModules(modules map[string]string) error {
	opts := []func(*rego.Rego){rego.Query(dispatchQuery)}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("prepare rego: %w", err)
	}

	e.mu.Lock()
	e.prepared = &prepared
	e.mu.Unlock()
	return nil
}

// Evaluate runs the policy against the given input.
func (e *Evaluator) Evaluate(ctx context.Context, input PolicyInput) (bool, string, error) {
	e.mu.RLock()
	prepared := e.prepared
	e.mu.RUnlock()

	if prepared == nil {
		// fail closed
		return false, "no policies loaded", nil
	}

	timeout := e.cfg().EvaluationTimeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}
	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := prepared.Eval(evalCtx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Sprintf("policy evaluation error: %v", err), err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, "no policy result", nil
	}

	arr, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok || len(arr) < 2 {
		return false, "unexpected policy result format", nil
	}

	allowed, _ := arr[0].(bool)
	reason, _ := arr[1].(string)
	return allowed, reason, nil
}

// InputFor builds the policy input for a chat request at time now.
func InputFor(req *types.ChatRequest, now time.Time) PolicyInput {
	now = now.UTC()
	return PolicyInput{
		User: PolicyUser{ID: req.UserID},
		Message: PolicyMessage{
			Chars:   utf8.RuneCountInString(req.Text),
			Words:   len(strings.Fields(req.Text)),
			Unclear: req.Unclear,
		},
		Time: PolicyTime{Hour: now.Hour(), Day: now.Weekday().String()},
	}
}

// ScanRequest implements filter.Filter.
func (e *Evaluator) ScanRequest(ctx context.Context, req *types.ChatRequest) filter.Result {
	allowed, reason, err := e.Evaluate(ctx, InputFor(req, time.Now()))
	if err != nil {
		slog.Error("policy evaluation failed", "error", err, "request_id", req.RequestID)
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    "Policy evaluation failed: " + err.Error(),
		}
	}
	if !allowed {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    "Request denied by policy: " + reason,
		}
	}
	return filter.Result{Action: filter.ActionPass, FilterName: "policy"}
}
