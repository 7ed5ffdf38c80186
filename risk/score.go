package risk

import "fmt"

type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Factor is one labelled contribution to a score, Impact in [-1, 1].
type Factor struct {
	Label  string  `json:"label"`
	Impact float64 `json:"impact"`
}

// Score is a trust/risk assessment of a subject, Score in [0, 100].
type Score struct {
	Score     int      `json:"score"`
	Level     Level    `json:"level"`
	Factors   []Factor `json:"factors"`
	Reasoning string   `json:"reasoning"`
}

// Validate rejects assessments that fall outside the documented ranges.
func (s Score) Validate() error {
	if s.Score < 0 || s.Score > 100 {
		return fmt.Errorf("score %d outside [0,100]", s.Score)
	}
	if !s.Level.Valid() {
		return fmt.Errorf("unknown level %q", s.Level)
	}
	for _, f := range s.Factors {
		if f.Impact < -1 || f.Impact > 1 {
			return fmt.Errorf("factor %q impact %v outside [-1,1]", f.Label, f.Impact)
		}
	}
	return nil
}

const BaselineReasoning = "Backend analysis unavailable. Using baseline data."

// Baseline is the score handed out when the scoring service cannot answer.
func Baseline() Score {
	return Score{
		Score:     75,
		Level:     LevelMedium,
		Reasoning: BaselineReasoning,
		Factors:   []Factor{{Label: "Baseline Consistency", Impact: 0.5}},
	}
}
