package pipeline

import (
	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/pkg/extract"
)

const (
	fieldCategory   = "primary_category"
	fieldHypothesis = "specific_intent_hypothesis"
	fieldConfidence = "confidence_score"
	fieldRationale  = "rationale"
	fieldAngle      = "initial_engagement_angle"

	fieldBait  = "honeypot_response"
	fieldFused = "final_response"

	fieldVerdict       = "verdict_code"
	fieldAttractive    = "quantitative_assessment.a_score"
	fieldFeasible      = "quantitative_assessment.f_score"
	fieldAnalysis      = "analysis_rationale"
	fieldAction        = "next_action.action_code"
	fieldActionDetails = "next_action.details"
)

func members[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var classificationSchema = extract.Schema{
	Name: "classification",
	Fields: []extract.Field{
		{
			Path:     fieldCategory,
			Kind:     extract.KindEnum,
			Required: true,
			Values:   members(casefile.Categories()),
			Alias: func(s string) (string, bool) {
				c, ok := casefile.ParseCategory(s)
				return string(c), ok
			},
		},
		{Path: fieldHypothesis, Kind: extract.KindString, Required: true},
		{
			Path:     fieldConfidence,
			Kind:     extract.KindInteger,
			Required: true,
			Bounds:   &extract.Bounds{Min: 1, Max: 5},
		},
		{Path: fieldRationale, Kind: extract.KindString},
		{Path: fieldAngle, Kind: extract.KindString},
	},
}

var baitSchema = extract.Schema{
	Name: "bait",
	Fields: []extract.Field{
		{Path: fieldBait, Kind: extract.KindString, Required: true},
	},
}

var fusionSchema = extract.Schema{
	Name: "fusion",
	Fields: []extract.Field{
		{Path: fieldFused, Kind: extract.KindString, Required: true},
	},
}

var judgmentSchema = extract.Schema{
	Name: "judgment",
	Fields: []extract.Field{
		{
			Path:     fieldVerdict,
			Kind:     extract.KindEnum,
			Required: true,
			Values:   members(casefile.Verdicts()),
		},
		{
			Path:     fieldAttractive,
			Kind:     extract.KindNumber,
			Required: true,
			Bounds:   &extract.Bounds{Min: 0, Max: 1},
		},
		{
			Path:     fieldFeasible,
			Kind:     extract.KindNumber,
			Required: true,
			Bounds:   &extract.Bounds{Min: 0, Max: 1},
		},
		{Path: fieldAnalysis, Kind: extract.KindString},
		{
			Path:   fieldAction,
			Kind:   extract.KindEnum,
			Values: members(casefile.Actions()),
		},
		{Path: fieldActionDetails, Kind: extract.KindString},
	},
}

func toClassification(rec *extract.Record) casefile.Classification {
	return casefile.Classification{
		PrimaryCategory:  casefile.Category(rec.String(fieldCategory)),
		IntentHypothesis: rec.String(fieldHypothesis),
		Confidence:       rec.Int(fieldConfidence),
		Rationale:        rec.String(fieldRationale),
		EngagementAngle:  rec.String(fieldAngle),
		Clamped:          rec.Flagged(fieldConfidence),
	}
}

func toJudgment(rec *extract.Record) casefile.Judgment {
	a, _ := rec.Float(fieldAttractive)
	f, _ := rec.Float(fieldFeasible)

	j := casefile.Judgment{
		Verdict:             casefile.Verdict(rec.String(fieldVerdict)),
		AttractivenessScore: &a,
		FeasibilityScore:    &f,
		Rationale:           rec.String(fieldAnalysis),
		NextAction:          casefile.Action(rec.String(fieldAction)),
		ActionDetails:       rec.String(fieldActionDetails),
	}

	for _, flag := range rec.Flags {
		j.Clamped = append(j.Clamped, flag.Field)
	}
	return j
}
