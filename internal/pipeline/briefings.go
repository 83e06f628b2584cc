package pipeline

import (
	"encoding/json"

	"github.com/JaimeStill/snare/internal/casefile"
)

type hypothesis struct {
	PrimaryCategory  casefile.Category `json:"primary_category"`
	IntentHypothesis string            `json:"specific_intent_hypothesis"`
}

type baitBriefing struct {
	Prompt          string            `json:"prompt"`
	PrimaryCategory casefile.Category `json:"primary_category"`
	Hypothesis      string            `json:"specific_intent_hypothesis"`
	Rationale       string            `json:"rationale"`
	EngagementAngle string            `json:"initial_engagement_angle"`
}

type adjudicationRequest struct {
	InitialHypothesis hypothesis `json:"initial_hypothesis"`
	BaitsOffered      []string   `json:"honeypot_baits_offered"`
	UserResponse      string     `json:"user_response_to_judge"`
}

type exchange struct {
	Role    casefile.Role `json:"role"`
	Content string        `json:"content"`
}

type followUpBriefing struct {
	InitialHypothesis hypothesis       `json:"initial_hypothesis"`
	BaitsOffered      []string         `json:"previous_baits_offered"`
	LatestReply       string           `json:"latest_user_reply"`
	Verdict           casefile.Verdict `json:"latest_verdict"`
	Rationale         string           `json:"analysis_rationale,omitempty"`
	Round             int              `json:"round"`
	Conversation      []exchange       `json:"recent_conversation"`
}

type fusionRequest struct {
	Normal   string `json:"normal_response"`
	Honeypot string `json:"honeypot_response"`
}

func encode(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func hypothesisOf(cf *casefile.CaseFile) hypothesis {
	if cf.Classification == nil {
		return hypothesis{PrimaryCategory: casefile.CategoryUnknown}
	}
	return hypothesis{
		PrimaryCategory:  cf.Classification.PrimaryCategory,
		IntentHypothesis: cf.Classification.IntentHypothesis,
	}
}

func newBaitBriefing(cf *casefile.CaseFile) string {
	c := cf.Classification
	return encode(baitBriefing{
		Prompt:          cf.OriginalMessage,
		PrimaryCategory: c.PrimaryCategory,
		Hypothesis:      c.IntentHypothesis,
		Rationale:       c.Rationale,
		EngagementAngle: c.EngagementAngle,
	})
}

func newAdjudicationRequest(cf *casefile.CaseFile, reply string) string {
	return encode(adjudicationRequest{
		InitialHypothesis: hypothesisOf(cf),
		BaitsOffered:      cf.BaitsOffered,
		UserResponse:      reply,
	})
}

// newFollowUpBriefing summarizes the conversation after the latest
// adjudication, including at most window recent user-visible turns.
func newFollowUpBriefing(cf *casefile.CaseFile, j casefile.Judgment, window int) string {
	b := followUpBriefing{
		InitialHypothesis: hypothesisOf(cf),
		BaitsOffered:      cf.BaitsOffered,
		LatestReply:       latestReply(cf),
		Verdict:           j.Verdict,
		Rationale:         j.Rationale,
		Round:             cf.Rounds,
		Conversation:      []exchange{},
	}

	for _, t := range visible(cf, window) {
		b.Conversation = append(b.Conversation, exchange{Role: t.Role, Content: t.Content})
	}
	return encode(b)
}

// visible returns the last window turns the user actually saw or wrote.
func visible(cf *casefile.CaseFile, window int) []casefile.Turn {
	var out []casefile.Turn
	for _, t := range cf.History {
		switch t.Stage {
		case casefile.StageAwaitingReply, casefile.StageAdjudicated:
			out = append(out, t)
		}
	}
	if window > 0 && len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}

// latestReply is the most recent user message, or the opening message.
func latestReply(cf *casefile.CaseFile) string {
	if t := cf.Last(casefile.StageAdjudicated); t != nil {
		return t.Content
	}
	return cf.OriginalMessage
}
