package pipeline

import (
	"context"
	"strings"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/internal/hooks"
)

// fallbackReply is sent when no stage produced usable text.
const fallbackReply = "I understand your interest. How can I help you with general information on this topic?"

// Classify assigns the case file's Classification and advances it to
// StageClassified. When the classification cannot be obtained the case file
// is terminated with ReasonClassificationFailed, its stage stays at
// StageInit, and Classify returns a nil Classification with a nil error.
func (o *Orchestrator) Classify(ctx context.Context, cf *casefile.CaseFile) (*casefile.Classification, error) {
	if err := guard(OpClassify, cf); err != nil {
		return nil, err
	}

	_, rec, err := o.generate(ctx, TaskClassify, cf.OriginalMessage, classificationSchema)
	if err != nil {
		o.fail(ctx, cf, OpClassify, err)
		cf.Terminate(casefile.ReasonClassificationFailed, "", o.now())
		o.logger.WarnContext(ctx, "classification failed", "session_id", cf.ID)
		return nil, nil
	}

	c := toClassification(rec)
	cf.Classification = &c
	cf.Advance(casefile.Turn{
		Role:     casefile.RoleSystem,
		Stage:    casefile.StageClassified,
		Content:  c.IntentHypothesis,
		Artifact: &casefile.Artifact{Classification: &c},
		At:       o.now(),
	})

	o.logger.InfoContext(
		ctx, "stage complete",
		"session_id", cf.ID,
		"stage", cf.Stage,
		"step", rec.Step,
		"category", c.PrimaryCategory,
		"confidence", c.Confidence,
	)

	return &c, nil
}

// Bait generates the first bait message from the classification and
// advances to StageBaited.
func (o *Orchestrator) Bait(ctx context.Context, cf *casefile.CaseFile) (string, error) {
	if err := guard(OpBait, cf); err != nil {
		return "", err
	}
	return o.bait(ctx, cf, TaskBait, newBaitBriefing(cf), ""), nil
}

// bait runs a bait-shaped task, replaces the offered hooks and appends the
// BAITED turn. Unextractable output is used verbatim with no hooks.
func (o *Orchestrator) bait(ctx context.Context, cf *casefile.CaseFile, task Task, briefing string, action casefile.Action) string {
	artifact := &casefile.Artifact{Action: action}
	offered := []string{}

	raw, rec, err := o.generate(ctx, task, briefing, baitSchema)
	var message string
	if err != nil {
		o.fail(ctx, cf, OpBait, err)
		message = trim(raw)
		artifact.Degraded = true
	} else {
		message = rec.String(fieldBait)
		offered = hooks.Locate(message)
	}

	artifact.Hooks = offered
	cf.BaitsOffered = offered
	cf.Advance(casefile.Turn{
		Role:     casefile.RoleSystem,
		Stage:    casefile.StageBaited,
		Content:  message,
		Artifact: artifact,
		At:       o.now(),
	})

	o.logger.InfoContext(
		ctx, "stage complete",
		"session_id", cf.ID,
		"stage", cf.Stage,
		"task", task,
		"hooks", len(offered),
		"degraded", artifact.Degraded,
	)

	return message
}

// Synthesize blends a plain helpful answer into the bait message and
// advances to StageSynthesized. A degraded bait is presented verbatim
// without fusion. Otherwise it falls back to the bait message, then the
// plain answer, then a fixed reply.
func (o *Orchestrator) Synthesize(ctx context.Context, cf *casefile.CaseFile) (string, error) {
	if err := guard(OpSynthesize, cf); err != nil {
		return "", err
	}

	var (
		bait     string
		degraded bool
	)
	if t := cf.Last(casefile.StageBaited); t != nil {
		bait = t.Content
		degraded = t.Artifact != nil && t.Artifact.Degraded
	}

	if degraded && bait != "" {
		return o.synthesized(ctx, cf, bait, &casefile.Artifact{Degraded: true}), nil
	}

	plain, err := o.text(ctx, TaskAnswer, latestReply(cf))
	if err != nil {
		o.fail(ctx, cf, OpSynthesize, err)
	}

	artifact := &casefile.Artifact{PlainAnswer: plain}
	var message string

	switch {
	case bait == "":
		message = firstNonEmpty(plain, fallbackReply)
		artifact.Degraded = true
	case plain == "":
		message = bait
		artifact.Degraded = true
	default:
		_, rec, err := o.generate(ctx, TaskFuse, encode(fusionRequest{Normal: plain, Honeypot: bait}), fusionSchema)
		if err != nil {
			o.fail(ctx, cf, OpSynthesize, err)
			message = bait
			artifact.Degraded = true
		} else {
			message = rec.String(fieldFused)
		}
	}

	return o.synthesized(ctx, cf, message, artifact), nil
}

func (o *Orchestrator) synthesized(ctx context.Context, cf *casefile.CaseFile, message string, artifact *casefile.Artifact) string {
	cf.Advance(casefile.Turn{
		Role:     casefile.RoleSystem,
		Stage:    casefile.StageSynthesized,
		Content:  message,
		Artifact: artifact,
		At:       o.now(),
	})

	o.logger.InfoContext(
		ctx, "stage complete",
		"session_id", cf.ID,
		"stage", cf.Stage,
		"degraded", artifact.Degraded,
	)

	return message
}

// Present hands the synthesized reply to the user and suspends the case
// file at StageAwaitingReply.
func (o *Orchestrator) Present(cf *casefile.CaseFile) (string, error) {
	if err := guard(OpPresent, cf); err != nil {
		return "", err
	}

	var message string
	if t := cf.Last(casefile.StageSynthesized); t != nil {
		message = t.Content
	}
	message = firstNonEmpty(message, fallbackReply)

	cf.Advance(casefile.Turn{
		Role:    casefile.RoleSystem,
		Stage:   casefile.StageAwaitingReply,
		Content: message,
		At:      o.now(),
	})

	return message, nil
}

// Adjudicate judges the user's reply against the hooks offered, records the
// judgment in the ledger and advances to StageAdjudicated. Unextractable
// output yields the sentinel judgment.
func (o *Orchestrator) Adjudicate(ctx context.Context, cf *casefile.CaseFile, reply string) (casefile.Judgment, error) {
	if err := guard(OpAdjudicate, cf); err != nil {
		return casefile.Judgment{}, err
	}

	var j casefile.Judgment
	_, rec, err := o.generate(ctx, TaskAdjudicate, newAdjudicationRequest(cf, reply), judgmentSchema)
	if err != nil {
		o.fail(ctx, cf, OpAdjudicate, err)
		j = casefile.SentinelJudgment()
	} else {
		j = toJudgment(rec)
	}

	if j.ActionMismatch() {
		o.logger.WarnContext(
			ctx, "next action disagrees with verdict",
			"session_id", cf.ID,
			"verdict", j.Verdict,
			"next_action", j.NextAction,
			"routed", j.Action(),
		)
	}

	o.ledger.Record(j)

	cf.Rounds++
	cf.Advance(casefile.Turn{
		Role:    casefile.RoleUser,
		Stage:   casefile.StageAdjudicated,
		Content: reply,
		Artifact: &casefile.Artifact{
			Judgment: &j,
			Action:   j.Action(),
			Degraded: j.Sentinel,
		},
		At: o.now(),
	})

	o.logger.InfoContext(
		ctx, "stage complete",
		"session_id", cf.ID,
		"stage", cf.Stage,
		"verdict", j.Verdict,
		"sentinel", j.Sentinel,
		"round", cf.Rounds,
	)

	return j, nil
}

// Outcome is the result of routing an adjudicated case file.
type Outcome struct {
	Action     casefile.Action    `json:"action"`
	Judgment   *casefile.Judgment `json:"judgment,omitempty"`
	Response   string             `json:"response"`
	Terminated bool               `json:"terminated"`
}

// Route acts on the latest judgment using the fixed verdict table.
// Continued engagement generates a fresh bait and returns to StageBaited;
// proceeding sends a neutralizing reply and aborting sends a plain helpful
// reply, both terminating the case file.
func (o *Orchestrator) Route(ctx context.Context, cf *casefile.CaseFile) (Outcome, error) {
	out, err := o.decide(cf)
	if err != nil {
		return Outcome{}, err
	}
	return o.act(ctx, cf, out), nil
}

// decide reads the routed action off the latest judgment.
func (o *Orchestrator) decide(cf *casefile.CaseFile) (Outcome, error) {
	if err := guard(OpRoute, cf); err != nil {
		return Outcome{}, err
	}

	j := casefile.SentinelJudgment()
	if t := cf.Last(casefile.StageAdjudicated); t != nil && t.Artifact != nil && t.Artifact.Judgment != nil {
		j = *t.Artifact.Judgment
	}

	return Outcome{Action: j.Action(), Judgment: &j}, nil
}

func (o *Orchestrator) act(ctx context.Context, cf *casefile.CaseFile, out Outcome) Outcome {
	switch out.Action {
	case casefile.ActionContinue:
		out.Response = o.bait(ctx, cf, TaskFollowUp, newFollowUpBriefing(cf, *out.Judgment, o.window), out.Action)
		return out

	case casefile.ActionProceed:
		out.Response = o.conclude(ctx, cf, TaskNeutralize, encode(hypothesisOf(cf)), out.Action)
		cf.Terminate(casefile.ReasonIntentConfirmed, out.Action, o.now())

	default:
		out.Response = o.conclude(ctx, cf, TaskAnswer, latestReply(cf), out.Action)
		cf.Terminate(casefile.ReasonHoneypotAborted, out.Action, o.now())
	}

	out.Terminated = true
	o.logger.InfoContext(
		ctx, "case file terminated",
		"session_id", cf.ID,
		"action", out.Action,
		"reason", cf.Termination.Reason,
		"rounds", cf.Rounds,
	)
	return out
}

// conclude writes the final system reply and moves to StageTerminated.
func (o *Orchestrator) conclude(ctx context.Context, cf *casefile.CaseFile, task Task, user string, action casefile.Action) string {
	artifact := &casefile.Artifact{Action: action}

	message, err := o.text(ctx, task, user)
	if err != nil || message == "" {
		if err != nil {
			o.fail(ctx, cf, OpRoute, err)
		}
		message = fallbackReply
		artifact.Degraded = true
	}

	cf.Advance(casefile.Turn{
		Role:     casefile.RoleSystem,
		Stage:    casefile.StageTerminated,
		Content:  message,
		Artifact: artifact,
		At:       o.now(),
	})
	return message
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
