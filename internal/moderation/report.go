package moderation

// StageOutcome is the result of one stage in a Report.
type StageOutcome struct {
	Stage    string   `json:"stage"`
	Violated bool     `json:"violated"`
	Category Category `json:"category,omitempty"`
	Label    string   `json:"label,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// Report is a diagnostic view of a message: every stage runs regardless of
// earlier hits. It is meant for tuning and tests, not the request path.
type Report struct {
	OriginalLength int            `json:"original_length"`
	CanonicalText  string         `json:"canonical_text"`
	Whitelisted    bool           `json:"whitelisted"`
	Unclear        bool           `json:"unclear"`
	Stages         []StageOutcome `json:"stages"`
	Verdict        Verdict        `json:"verdict"`
}

// Report evaluates every stage of text, including the length bounds.
func (e *Engine) Report(text string) Report {
	in := newInput(text)
	r := Report{
		OriginalLength: runeLen(text),
		CanonicalText:  in.canonical,
		Whitelisted:    e.rules.Whitelisted(text),
		Unclear:        isUnclear(text),
		Verdict:        e.Filter(text),
	}

	v, ok := checkLength(e.rules, text)
	r.Stages = append(r.Stages, outcome("length", v, ok))
	for _, s := range pipeline {
		v, ok := s.check(e.rules, in)
		r.Stages = append(r.Stages, outcome(s.name, v, ok))
	}
	return r
}

// Violations returns only the stages that fired.
func (r Report) Violations() []StageOutcome {
	var out []StageOutcome
	for _, s := range r.Stages {
		if s.Violated {
			out = append(out, s)
		}
	}
	return out
}

func outcome(name string, v Violation, ok bool) StageOutcome {
	if !ok {
		return StageOutcome{Stage: name}
	}
	return StageOutcome{
		Stage:    name,
		Violated: true,
		Category: v.Category,
		Label:    v.Category.Label(),
		Detail:   v.Detail,
	}
}
