package moderation

// Verdict is the outcome of one moderation pass. Exactly one of the two
// shapes is populated: Accepted with the untouched input in Text, or
// rejected with Category and Detail.
type Verdict struct {
	Accepted bool     `json:"accepted"`
	Text     string   `json:"text,omitempty"`
	Category Category `json:"category,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// Violation is a single stage finding.
type Violation struct {
	Category Category `json:"category"`
	Detail   string   `json:"detail"`
}

func accept(text string) Verdict {
	return Verdict{Accepted: true, Text: text}
}

func reject(v Violation) Verdict {
	return Verdict{Category: v.Category, Detail: v.Detail}
}

// Rejected is the inverse of Accepted.
func (v Verdict) Rejected() bool { return !v.Accepted }

// Violation returns the rejection reason; ok is false for accepted verdicts.
func (v Verdict) Violation() (Violation, bool) {
	if v.Accepted {
		return Violation{}, false
	}
	return Violation{Category: v.Category, Detail: v.Detail}, true
}
