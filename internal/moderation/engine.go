package moderation

import (
	"strings"
	"sync/atomic"
)

// input carries the three views of a message the stages read.
type input struct {
	original  string
	lower     string
	canonical string
}

func newInput(text string) *input {
	return &input{
		original:  text,
		lower:     strings.ToLower(text),
		canonical: Normalize(text),
	}
}

type stage struct {
	name  string
	check func(rs *RuleSet, in *input) (Violation, bool)
}

// pipeline is evaluated in order; the first violation wins.
var pipeline = []stage{
	{name: "profanity", check: checkProfanity},
	{name: "links", check: checkLinks},
	{name: "spam", check: checkSpam},
	{name: "suspicious", check: checkSuspicious},
	{name: "context", check: checkContext},
	{name: "behavior", check: checkBehavior},
}

// StageNames lists the content stages in evaluation order.
func StageNames() []string {
	names := make([]string, len(pipeline))
	for i, s := range pipeline {
		names[i] = s.name
	}
	return names
}

// Engine decides whether text may be forwarded. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	rules *RuleSet
}

// New creates an engine over rules. A nil rule set means DefaultRuleSet.
func New(rules *RuleSet) *Engine {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	return &Engine{rules: rules}
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() *RuleSet { return e.rules }

// Filter runs the length bounds, the whitelist and then every content stage
// until one fires. Accepted verdicts carry the input unchanged.
func (e *Engine) Filter(text string) Verdict {
	if v, ok := checkLength(e.rules, text); ok {
		return reject(v)
	}
	if e.rules.Whitelisted(text) {
		return accept(text)
	}
	in := newInput(text)
	for _, s := range pipeline {
		if v, ok := s.check(e.rules, in); ok {
			return reject(v)
		}
	}
	return accept(text)
}

// IsUnclear reports whether text is too vague to act on.
func (e *Engine) IsUnclear(text string) bool {
	return isUnclear(text)
}

func checkLength(rs *RuleSet, text string) (Violation, bool) {
	if runeLen(strings.TrimSpace(text)) < rs.limits.MinLength {
		return Violation{Category: CategoryTooShort, Detail: "message is too short"}, true
	}
	if runeLen(text) > rs.limits.MaxLength {
		return Violation{Category: CategoryTooLong, Detail: "message is too long"}, true
	}
	return Violation{}, false
}

// Holder publishes the current engine to concurrent readers. Swapping in a
// new engine never exposes a partially built rule set.
type Holder struct {
	p atomic.Pointer[Engine]
}

// NewHolder returns a holder serving e.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.p.Store(e)
	return h
}

// Load returns the current engine.
func (h *Holder) Load() *Engine { return h.p.Load() }

// Store replaces the current engine.
func (h *Holder) Store(e *Engine) { h.p.Store(e) }
