package risk

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jrsteele09/kaziflow-client/internal/logging"
	"github.com/jrsteele09/kaziflow-client/internal/resilience"
	"github.com/pkg/errors"
)

// PlaceholderSubjectID is scored when the caller supplies no subject id.
const PlaceholderSubjectID = "mock-vendor-id"

// Subject is the data describing the business entity being scored.
// The "id" entry names it.
type Subject map[string]any

// ID returns the "id" entry as text. Decoded JSON numbers arrive as float64
// and are written without an exponent. Maps, slices and nil yield "".
func (s Subject) ID() string {
	switch id := s["id"].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

// Analyzer performs the remote scoring call.
type Analyzer interface {
	AnalyzeRisk(ctx context.Context, subjectID string, subject map[string]any) (Score, error)
}

// Client obtains scores and never leaves the caller without one.
type Client struct {
	analyzer Analyzer
}

func NewClient(analyzer Analyzer) *Client {
	return &Client{analyzer: analyzer}
}

// GetRiskScore returns the server's assessment, or Baseline on any failure.
// No retry is attempted.
func (c *Client) GetRiskScore(ctx context.Context, subject Subject) Score {
	subjectID := subject.ID()
	if subjectID == "" {
		logging.From(ctx).Warn().Str("placeholder", PlaceholderSubjectID).Msg("Risk subject has no id, scoring placeholder")
		subjectID = PlaceholderSubjectID
	}

	call := resilience.WithFallback("risk.analyze", func(ctx context.Context) (Score, error) {
		score, err := c.analyzer.AnalyzeRisk(ctx, subjectID, subject)
		if err != nil {
			return Score{}, err
		}
		if err := score.Validate(); err != nil {
			return Score{}, errors.Wrap(err, "[GetRiskScore] malformed assessment")
		}
		return score, nil
	}, Baseline)

	return call(logging.With(ctx, "subject_id", subjectID))
}
