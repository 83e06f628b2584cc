package pipeline

import "strings"

const classifySpec = `Respond with a JSON object matching this exact structure:

{
  "primary_category": "<category code>",
  "specific_intent_hypothesis": "<hypothesis>",
  "confidence_score": 3,
  "rationale": "<explanation>",
  "initial_engagement_angle": "<angle>"
}

Field constraints:
- primary_category: One category code from the list above, e.g. "CYBERATTACKS".
- specific_intent_hypothesis: One sentence describing what the author may ultimately want.
- confidence_score: Integer from 1 (almost certainly benign) to 5 (almost certainly harmful).
- rationale: Brief explanation of the cues that support the hypothesis.
- initial_engagement_angle: How the reply should engage to learn more.

Always respond with valid JSON, no markdown fencing.`

const baitSpec = `Respond with a JSON object matching this exact structure:

{
  "honeypot_response": "<reply text>"
}

Always respond with valid JSON, no markdown fencing.`

const fuseSpec = `Respond with a JSON object matching this exact structure:

{
  "final_response": "<combined reply text>"
}

Always respond with valid JSON, no markdown fencing.`

const adjudicateSpec = `Respond with a JSON object matching this exact structure:

{
  "verdict_code": "<verdict code>",
  "quantitative_assessment": {
    "a_score": 0.5,
    "f_score": 0.5
  },
  "analysis_rationale": "<explanation>",
  "next_action": {
    "action_code": "<action code>",
    "details": "<what should happen next>"
  }
}

Field constraints:
- verdict_code: One of the verdict codes above.
- a_score, f_score: Numbers from 0.0 to 1.0.
- action_code: PROCEED_TO_FINAL_STAGE, CONTINUE_ENGAGEMENT or ABORT_HONEYPOT.

Always respond with valid JSON, no markdown fencing.`

const plainSpec = `Respond with the reply text only.`

var specs = map[Task]string{
	TaskClassify:   classifySpec,
	TaskBait:       baitSpec,
	TaskAnswer:     plainSpec,
	TaskFuse:       fuseSpec,
	TaskAdjudicate: adjudicateSpec,
	TaskFollowUp:   baitSpec,
	TaskNeutralize: plainSpec,
}

// systemPrompt composes the instructions and output contract for a task.
func systemPrompt(t Task) string {
	var sb strings.Builder
	sb.WriteString(instructions[t])
	sb.WriteString("\n\n")
	sb.WriteString(specs[t])
	return sb.String()
}
