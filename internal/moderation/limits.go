package moderation

// Limits holds every tunable threshold used by the stages.
// A zero field means "use the default". NearMatchTolerance is a pointer so
// that an explicit 0 (exact matches only) can be configured.
type Limits struct {
	MinLength          int     `yaml:"min_length" json:"min_length"`
	MaxLength          int     `yaml:"max_length" json:"max_length"`
	NearMatchTolerance *int    `yaml:"near_match_tolerance" json:"near_match_tolerance"`
	MinLexicalWord     int     `yaml:"min_lexical_word" json:"min_lexical_word"`
	MinPatternSpan     int     `yaml:"min_pattern_span" json:"min_pattern_span"`
	SpamGroups         int     `yaml:"spam_groups" json:"spam_groups"`
	ContextTriggers    int     `yaml:"context_triggers" json:"context_triggers"`
	CapsWords          int     `yaml:"caps_words" json:"caps_words"`
	CapsWordLen        int     `yaml:"caps_word_len" json:"caps_word_len"`
	RepeatRun          int     `yaml:"repeat_run" json:"repeat_run"`
	PunctRun           int     `yaml:"punct_run" json:"punct_run"`
	FloodMinWords      int     `yaml:"flood_min_words" json:"flood_min_words"`
	FloodRatio         float64 `yaml:"flood_ratio" json:"flood_ratio"`
	SpecialRatio       float64 `yaml:"special_ratio" json:"special_ratio"`
}

// DefaultLimits returns the production thresholds.
func DefaultLimits() Limits {
	return Limits{
		MinLength:          2,
		MaxLength:          2000,
		NearMatchTolerance: intPtr(2),
		MinLexicalWord:     3,
		MinPatternSpan:     3,
		SpamGroups:         3,
		ContextTriggers:    3,
		CapsWords:          3,
		CapsWordLen:        4,
		RepeatRun:          6,
		PunctRun:           4,
		FloodMinWords:      15,
		FloodRatio:         0.4,
		SpecialRatio:       0.5,
	}
}

// Merge returns l with every set field of o applied on top: non-zero values,
// and a non-nil, non-negative NearMatchTolerance.
func (l Limits) Merge(o Limits) Limits {
	setInt(&l.MinLength, o.MinLength)
	setInt(&l.MaxLength, o.MaxLength)
	if o.NearMatchTolerance != nil && *o.NearMatchTolerance >= 0 {
		l.NearMatchTolerance = intPtr(*o.NearMatchTolerance)
	}
	setInt(&l.MinLexicalWord, o.MinLexicalWord)
	setInt(&l.MinPatternSpan, o.MinPatternSpan)
	setInt(&l.SpamGroups, o.SpamGroups)
	setInt(&l.ContextTriggers, o.ContextTriggers)
	setInt(&l.CapsWords, o.CapsWords)
	setInt(&l.CapsWordLen, o.CapsWordLen)
	setInt(&l.RepeatRun, o.RepeatRun)
	setInt(&l.PunctRun, o.PunctRun)
	setInt(&l.FloodMinWords, o.FloodMinWords)
	if o.FloodRatio > 0 {
		l.FloodRatio = o.FloodRatio
	}
	if o.SpecialRatio > 0 {
		l.SpecialRatio = o.SpecialRatio
	}
	return l
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// Tolerance returns the near-match tolerance, falling back to the default
// when unset.
func (l Limits) Tolerance() int {
	if l.NearMatchTolerance == nil {
		return *DefaultLimits().NearMatchTolerance
	}
	return *l.NearMatchTolerance
}

func intPtr(v int) *int { return &v }
