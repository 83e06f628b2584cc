package casefile

import (
	"strconv"
	"strings"
)

// Stage is a position in the conversation state machine.
type Stage string

const (
	StageInit          Stage = "INIT"
	StageClassified    Stage = "CLASSIFIED"
	StageBaited        Stage = "BAITED"
	StageSynthesized   Stage = "SYNTHESIZED"
	StageAwaitingReply Stage = "AWAITING_USER_REPLY"
	StageAdjudicated   Stage = "ADJUDICATED"
	StageTerminated    Stage = "TERMINATED"
)

// Role identifies the author of a Turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system-response"
)

// Category is a harm classification for an opening message.
type Category string

const (
	CategoryWeapons            Category = "EXPLOSIVES_WEAPONS"
	CategoryViolentCrime       Category = "VIOLENT_CRIME"
	CategoryHarassment         Category = "HARASSMENT_STALKING"
	CategoryChildExploitation  Category = "CHILD_EXPLOITATION"
	CategorySelfHarm           Category = "SELF_HARM"
	CategoryIllegalDrugs       Category = "ILLEGAL_DRUGS"
	CategoryFinancialFraud     Category = "FINANCIAL_FRAUD"
	CategoryCyberattacks       Category = "CYBERATTACKS"
	CategoryIdentityTheft      Category = "IDENTITY_THEFT_DOXXING"
	CategoryDisinformation     Category = "DISINFORMATION"
	CategoryEnvironmentalCrime Category = "ENVIRONMENTAL_CRIME"
	CategoryHumanTrafficking   Category = "HUMAN_TRAFFICKING"
	CategoryTerrorism          Category = "TERRORISM_EXTREMISM"
	CategoryUnknown            Category = "UNKNOWN"
)

var categories = []struct {
	code  Category
	label string
}{
	{CategoryWeapons, "Creation of weapons or explosives"},
	{CategoryViolentCrime, "Planning violent crimes"},
	{CategoryHarassment, "Harassment or stalking"},
	{CategoryChildExploitation, "Child exploitation"},
	{CategorySelfHarm, "Self-harm or suicide methods"},
	{CategoryIllegalDrugs, "Illegal drug synthesis or trafficking"},
	{CategoryFinancialFraud, "Financial fraud or scams"},
	{CategoryCyberattacks, "Hacking or cyberattacks"},
	{CategoryIdentityTheft, "Identity theft or doxxing"},
	{CategoryDisinformation, "Spreading disinformation or propaganda"},
	{CategoryEnvironmentalCrime, "Environmental crimes"},
	{CategoryHumanTrafficking, "Human trafficking"},
	{CategoryTerrorism, "Terrorism or extremist activities"},
}

// Categories returns the classifiable category codes in catalogue order.
// CategoryUnknown is not among them.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = c.code
	}
	return out
}

// Label returns the human-readable name of c.
func (c Category) Label() string {
	if c == CategoryUnknown {
		return "Unknown"
	}
	for _, entry := range categories {
		if entry.code == c {
			return entry.label
		}
	}
	return string(c)
}

// ParseCategory resolves a category code, its label, or a catalogue entry
// written as "<n>. <label>" or "<n>". It never yields CategoryUnknown.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, entry := range categories {
		if strings.EqualFold(s, string(entry.code)) || strings.EqualFold(s, entry.label) {
			return entry.code, true
		}
	}

	number, rest, _ := strings.Cut(s, ".")
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || n < 1 || n > len(categories) {
		return "", false
	}

	entry := categories[n-1]
	rest = strings.TrimSpace(rest)
	if rest != "" && !strings.EqualFold(rest, entry.label) {
		return "", false
	}
	return entry.code, true
}

// Verdict is the adjudicator's judgment of a user reply.
type Verdict string

const (
	VerdictConfirmedHigh     Verdict = "INTENT_CONFIRMED_HIGH"
	VerdictConfirmedModerate Verdict = "INTENT_CONFIRMED_MODERATE"
	VerdictUnclear           Verdict = "INTENT_UNCLEAR_CONTINUE_PROBE"
	VerdictSuspicion         Verdict = "SUSPICION_DETECTED_ABORT"
	VerdictRejected          Verdict = "INTENT_REJECTED_DISENGAGE"
)

func Verdicts() []Verdict {
	return []Verdict{
		VerdictConfirmedHigh,
		VerdictConfirmedModerate,
		VerdictUnclear,
		VerdictSuspicion,
		VerdictRejected,
	}
}

// Action is the routing decision that follows a verdict.
type Action string

const (
	ActionProceed  Action = "PROCEED_TO_FINAL_STAGE"
	ActionContinue Action = "CONTINUE_ENGAGEMENT"
	ActionAbort    Action = "ABORT_HONEYPOT"
)

func Actions() []Action {
	return []Action{ActionProceed, ActionContinue, ActionAbort}
}

var routes = map[Verdict]Action{
	VerdictConfirmedHigh:     ActionProceed,
	VerdictConfirmedModerate: ActionProceed,
	VerdictUnclear:           ActionContinue,
	VerdictSuspicion:         ActionAbort,
	VerdictRejected:          ActionAbort,
}

// Route returns the action for v. A verdict outside the closed set routes
// the same as an unclear one and keeps the conversation probing.
func Route(v Verdict) Action {
	if a, ok := routes[v]; ok {
		return a
	}
	return ActionContinue
}

// TerminationReason records why a conversation ended.
type TerminationReason string

const (
	ReasonClassificationFailed TerminationReason = "CLASSIFICATION_FAILED"
	ReasonIntentConfirmed      TerminationReason = "INTENT_CONFIRMED"
	ReasonHoneypotAborted      TerminationReason = "HONEYPOT_ABORTED"
)
