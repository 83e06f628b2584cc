// Package casefile holds the per-conversation record the pipeline reads and
// writes, along with the closed vocabularies it is built from.
package casefile

import (
	"time"

	"github.com/google/uuid"
)

type Classification struct {
	PrimaryCategory  Category `json:"primary_category"`
	IntentHypothesis string   `json:"intent_hypothesis"`
	Confidence       int      `json:"confidence"`
	Rationale        string   `json:"rationale,omitempty"`
	EngagementAngle  string   `json:"engagement_angle,omitempty"`
	Clamped          bool     `json:"clamped,omitempty"`
}

// Judgment is the adjudicator's assessment of one user reply. Scores are nil
// when the adjudication degraded to the sentinel.
type Judgment struct {
	Verdict             Verdict  `json:"verdict"`
	AttractivenessScore *float64 `json:"attractiveness_score,omitempty"`
	FeasibilityScore    *float64 `json:"feasibility_score,omitempty"`
	Rationale           string   `json:"rationale,omitempty"`
	NextAction          Action   `json:"next_action,omitempty"`
	ActionDetails       string   `json:"action_details,omitempty"`
	Clamped             []string `json:"clamped,omitempty"`
	Sentinel            bool     `json:"sentinel,omitempty"`
}

// SentinelJudgment is substituted when adjudication output cannot be
// extracted. It routes to continued engagement and carries no scores.
func SentinelJudgment() Judgment {
	return Judgment{
		Verdict:    VerdictUnclear,
		NextAction: ActionContinue,
		Sentinel:   true,
	}
}

// Action returns the routed action for the judgment's verdict.
func (j Judgment) Action() Action {
	return Route(j.Verdict)
}

// ActionMismatch reports whether the adjudicator's suggested next action
// disagrees with the action its verdict routes to.
func (j Judgment) ActionMismatch() bool {
	return j.NextAction != "" && j.NextAction != j.Action()
}

// Artifact is the structured output attached to a Turn.
type Artifact struct {
	Classification *Classification `json:"classification,omitempty"`
	Hooks          []string        `json:"hooks,omitempty"`
	PlainAnswer    string          `json:"plain_answer,omitempty"`
	Judgment       *Judgment       `json:"judgment,omitempty"`
	Action         Action          `json:"action,omitempty"`
	Degraded       bool            `json:"degraded,omitempty"`
}

// Turn is one entry in a conversation's history. Stage is the stage the
// conversation entered when the turn was written.
type Turn struct {
	Role     Role      `json:"role"`
	Stage    Stage     `json:"stage"`
	Content  string    `json:"content"`
	Artifact *Artifact `json:"artifact,omitempty"`
	At       time.Time `json:"at"`
}

// Failure records a stage whose model output could not be used. Stage is
// the stage the case file held when the failing operation ran.
type Failure struct {
	Operation string    `json:"operation"`
	Stage     Stage     `json:"stage"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

type Termination struct {
	Reason TerminationReason `json:"reason"`
	Action Action            `json:"action,omitempty"`
	At     time.Time         `json:"at"`
}

// CaseFile is the complete record of one conversation.
type CaseFile struct {
	ID              uuid.UUID       `json:"id"`
	OriginalMessage string          `json:"original_message"`
	Classification  *Classification `json:"classification,omitempty"`
	BaitsOffered    []string        `json:"baits_offered"`
	History         []Turn          `json:"history"`
	Stage           Stage           `json:"stage"`
	Rounds          int             `json:"rounds"`
	Failures        []Failure       `json:"failures,omitempty"`
	Termination     *Termination    `json:"termination,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// New opens a case file at StageInit for an opening message.
func New(message string, now time.Time) *CaseFile {
	now = now.UTC()
	return &CaseFile{
		ID:              uuid.New(),
		OriginalMessage: message,
		BaitsOffered:    []string{},
		History:         []Turn{},
		Stage:           StageInit,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (c *CaseFile) Terminated() bool {
	return c.Termination != nil
}

// Advance appends turn and moves the case file to the turn's stage.
func (c *CaseFile) Advance(turn Turn) {
	turn.At = turn.At.UTC()
	c.History = append(c.History, turn)
	c.Stage = turn.Stage
	c.UpdatedAt = turn.At
}

// Terminate closes the case file. The stage is left where it is.
func (c *CaseFile) Terminate(reason TerminationReason, action Action, now time.Time) {
	now = now.UTC()
	c.Termination = &Termination{Reason: reason, Action: action, At: now}
	c.UpdatedAt = now
}

func (c *CaseFile) Fail(f Failure) {
	f.At = f.At.UTC()
	c.Failures = append(c.Failures, f)
	c.UpdatedAt = f.At
}

// Last returns the most recent turn written at stage, or nil.
func (c *CaseFile) Last(stage Stage) *Turn {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Stage == stage {
			return &c.History[i]
		}
	}
	return nil
}

// Judgments returns every adjudication recorded in the history, oldest first.
func (c *CaseFile) Judgments() []Judgment {
	var out []Judgment
	for _, t := range c.History {
		if t.Artifact != nil && t.Artifact.Judgment != nil {
			out = append(out, *t.Artifact.Judgment)
		}
	}
	return out
}
