// Package sessions keeps case files between conversational turns. It owns
// persistence, serializes access to each case file, prunes idle sessions,
// exports transcripts and exposes the conversation over HTTP.
package sessions

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/internal/metrics"
	"github.com/JaimeStill/snare/internal/pipeline"
	"github.com/JaimeStill/snare/pkg/query"
)

// Summary is the listing view of a session.
type Summary struct {
	ID              uuid.UUID         `json:"id"`
	Stage           casefile.Stage    `json:"stage"`
	Terminated      bool              `json:"terminated"`
	Category        casefile.Category `json:"category,omitempty"`
	OriginalMessage string            `json:"original_message"`
	Rounds          int               `json:"rounds"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func summarize(cf *casefile.CaseFile) Summary {
	s := Summary{
		ID:              cf.ID,
		Stage:           cf.Stage,
		Terminated:      cf.Terminated(),
		OriginalMessage: cf.OriginalMessage,
		Rounds:          cf.Rounds,
		CreatedAt:       cf.CreatedAt,
		UpdatedAt:       cf.UpdatedAt,
	}
	if cf.Classification != nil {
		s.Category = cf.Classification.PrimaryCategory
	}
	return s
}

// Filters contains optional filtering criteria for session queries.
// Nil fields are ignored; all set fields use exact matching.
type Filters struct {
	Stage      *string `json:"stage,omitempty"`
	Category   *string `json:"category,omitempty"`
	Terminated *bool   `json:"terminated,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Stage", f.Stage).
		WhereEquals("Category", f.Category).
		WhereEquals("Terminated", f.Terminated)
}

func (f Filters) match(s Summary) bool {
	if f.Stage != nil && string(s.Stage) != *f.Stage {
		return false
	}
	if f.Category != nil && string(s.Category) != *f.Category {
		return false
	}
	if f.Terminated != nil && s.Terminated != *f.Terminated {
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("stage"); s != "" {
		s = strings.ToUpper(s)
		f.Stage = &s
	}

	if c := values.Get("category"); c != "" {
		c = strings.ToUpper(c)
		f.Category = &c
	}

	if t := values.Get("terminated"); t != "" {
		if v, err := strconv.ParseBool(t); err == nil {
			f.Terminated = &v
		}
	}

	return f
}

// Exchange is the reply to one conversational request.
type Exchange struct {
	SessionID  uuid.UUID                  `json:"session_id"`
	Stage      casefile.Stage             `json:"stage"`
	Response   string                     `json:"response"`
	Terminated bool                       `json:"terminated"`
	Reason     casefile.TerminationReason `json:"reason,omitempty"`
	Action     casefile.Action            `json:"action,omitempty"`
	Judgment   *casefile.Judgment         `json:"judgment,omitempty"`
}

func newExchange(cf *casefile.CaseFile, response string, out *pipeline.Outcome) *Exchange {
	e := &Exchange{
		SessionID:  cf.ID,
		Stage:      cf.Stage,
		Response:   response,
		Terminated: cf.Terminated(),
	}
	if cf.Termination != nil {
		e.Reason = cf.Termination.Reason
	}
	if out != nil {
		e.Action = out.Action
		e.Judgment = out.Judgment
	}
	return e
}

// Transcript is the exported form of a session.
type Transcript struct {
	Session    *casefile.CaseFile `json:"session"`
	Metrics    TranscriptMetrics  `json:"metrics"`
	ExportedAt time.Time          `json:"exported_at"`
}

// TranscriptMetrics are derived from a single session's history.
type TranscriptMetrics struct {
	TotalTurns         int                      `json:"total_turns"`
	Judgments          int                      `json:"judgments"`
	MeanAttractiveness float64                  `json:"mean_attractiveness"`
	MeanFeasibility    float64                  `json:"mean_feasibility"`
	Verdicts           map[casefile.Verdict]int `json:"verdicts"`
	ThreatsDetected    int                      `json:"threats_detected"`
}

// threatConfidence is the classification confidence above which a session
// counts as a detected threat.
const threatConfidence = 3

// NewTranscript derives the per-session metrics for cf and stamps the export time.
func NewTranscript(cf *casefile.CaseFile, now time.Time) Transcript {
	ledger := metrics.NewLedger()
	for _, j := range cf.Judgments() {
		ledger.Record(j)
	}
	snap := ledger.Snapshot()

	m := TranscriptMetrics{
		TotalTurns:         len(cf.History),
		Judgments:          snap.Count,
		MeanAttractiveness: snap.MeanAttractiveness(),
		MeanFeasibility:    snap.MeanFeasibility(),
		Verdicts:           snap.VerdictCounts,
	}
	if cf.Classification != nil && cf.Classification.Confidence > threatConfidence {
		m.ThreatsDetected = 1
	}

	return Transcript{Session: cf, Metrics: m, ExportedAt: now.UTC()}
}
