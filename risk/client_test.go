package risk_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jrsteele09/kaziflow-client/risk"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	score     risk.Score
	err       error
	calls     int
	subjectID string
	subject   map[string]any
}

func (f *fakeAnalyzer) AnalyzeRisk(_ context.Context, subjectID string, subject map[string]any) (risk.Score, error) {
	f.calls++
	f.subjectID = subjectID
	f.subject = subject
	return f.score, f.err
}

var expectedFallback = risk.Score{
	Score:     75,
	Level:     "Medium",
	Reasoning: "Backend analysis unavailable. Using baseline data.",
	Factors:   []risk.Factor{{Label: "Baseline Consistency", Impact: 0.5}},
}

func TestGetRiskScore_Success(t *testing.T) {
	want := risk.Score{Score: 42, Level: risk.LevelHigh, Reasoning: "late deliveries", Factors: []risk.Factor{{Label: "Delivery", Impact: -0.7}}}
	analyzer := &fakeAnalyzer{score: want}

	got := risk.NewClient(analyzer).GetRiskScore(context.Background(), risk.Subject{"id": "vendor-9", "history_years": 2})
	require.Equal(t, want, got)
	require.Equal(t, "vendor-9", analyzer.subjectID)
	require.Equal(t, 2, analyzer.subject["history_years"])
}

func TestGetRiskScore_FailureReturnsFallback(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("connection refused")}
	got := risk.NewClient(analyzer).GetRiskScore(context.Background(), risk.Subject{"id": "vendor-9"})
	require.Equal(t, expectedFallback, got)
	require.Equal(t, 1, analyzer.calls, "no retry")
}

func TestGetRiskScore_MalformedReturnsFallback(t *testing.T) {
	for name, score := range map[string]risk.Score{
		"score too high": {Score: 101, Level: risk.LevelLow},
		"negative score": {Score: -1, Level: risk.LevelLow},
		"unknown level":  {Score: 50, Level: "Unknown"},
		"impact range":   {Score: 50, Level: risk.LevelLow, Factors: []risk.Factor{{Label: "x", Impact: 1.5}}},
	} {
		t.Run(name, func(t *testing.T) {
			got := risk.NewClient(&fakeAnalyzer{score: score}).GetRiskScore(context.Background(), risk.Subject{"id": "v"})
			require.Equal(t, expectedFallback, got)
		})
	}
}

func TestGetRiskScore_PlaceholderSubject(t *testing.T) {
	analyzer := &fakeAnalyzer{score: risk.Score{Score: 10, Level: risk.LevelLow}}
	risk.NewClient(analyzer).GetRiskScore(context.Background(), nil)
	require.Equal(t, risk.PlaceholderSubjectID, analyzer.subjectID)

	risk.NewClient(analyzer).GetRiskScore(context.Background(), risk.Subject{"id": "  "})
	require.Equal(t, risk.PlaceholderSubjectID, analyzer.subjectID)

	risk.NewClient(analyzer).GetRiskScore(context.Background(), risk.Subject{"id": map[string]any{"k": 1}})
	require.Equal(t, risk.PlaceholderSubjectID, analyzer.subjectID)
}

func TestSubject_ID(t *testing.T) {
	for name, tc := range map[string]struct {
		id   any
		want string
	}{
		"string":       {" vendor-9 ", "vendor-9"},
		"json number":  {float64(42), "42"},
		"large number": {float64(12345678), "12345678"},
		"fraction":     {2.5, "2.5"},
		"int":          {12, "12"},
		"json.Number":  {json.Number("77"), "77"},
		"bool":         {true, "true"},
		"nil":          {nil, ""},
		"list":         {[]any{"a"}, ""},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, risk.Subject{"id": tc.id}.ID())
		})
	}
	require.Equal(t, "", risk.Subject(nil).ID())
}

func TestGetRiskScore_NumericSubjectID(t *testing.T) {
	analyzer := &fakeAnalyzer{score: risk.Score{Score: 10, Level: risk.LevelLow}}

	var subject risk.Subject
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "sector": "agri"}`), &subject))
	risk.NewClient(analyzer).GetRiskScore(context.Background(), subject)
	require.Equal(t, "42", analyzer.subjectID)
}

func TestBaseline_FreshCopy(t *testing.T) {
	first := risk.Baseline()
	first.Factors[0].Label = "mutated"
	require.Equal(t, "Baseline Consistency", risk.Baseline().Factors[0].Label)
}
