// Package pipeline runs the staged conversation state machine over a case
// file: classify, bait, synthesize, present, adjudicate and route.
//
// Gateway and extraction failures never escape an operation. Classification
// failure terminates the case file; every later stage degrades to usable
// text and records the failure on the case file. Only invalid transitions
// are returned as errors.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/internal/metrics"
	"github.com/JaimeStill/snare/pkg/extract"
	"github.com/JaimeStill/snare/pkg/gateway"
)

// DefaultHistoryWindow is how many recent user-visible turns a follow-up
// briefing carries.
const DefaultHistoryWindow = 6

// Runtime bundles the dependencies an Orchestrator requires.
type Runtime struct {
	Gateway       gateway.Gateway
	Ledger        *metrics.Ledger
	Params        Params
	Timeout       time.Duration
	HistoryWindow int
	Logger        *slog.Logger
	Now           func() time.Time
}

// Orchestrator holds no per-session state. A single instance serves any
// number of concurrent sessions, provided each case file is driven by one
// caller at a time.
type Orchestrator struct {
	gateway gateway.Gateway
	ledger  *metrics.Ledger
	params  Params
	window  int
	logger  *slog.Logger
	now     func() time.Time
}

func New(rt Runtime) *Orchestrator {
	o := &Orchestrator{
		gateway: gateway.WithTimeout(rt.Gateway, rt.Timeout),
		ledger:  rt.Ledger,
		params:  rt.Params,
		window:  rt.HistoryWindow,
		logger:  rt.Logger,
		now:     rt.Now,
	}

	if o.ledger == nil {
		o.ledger = metrics.NewLedger()
	}
	if o.params == nil {
		o.params = DefaultParams()
	}
	if o.window <= 0 {
		o.window = DefaultHistoryWindow
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.now == nil {
		o.now = time.Now
	}

	o.logger = o.logger.With("system", "pipeline")
	return o
}

// Ledger returns the metrics ledger adjudications are recorded in.
func (o *Orchestrator) Ledger() *metrics.Ledger {
	return o.ledger
}

// Operation names a state machine transition.
type Operation string

const (
	OpClassify   Operation = "classify"
	OpBait       Operation = "bait"
	OpSynthesize Operation = "synthesize"
	OpPresent    Operation = "present"
	OpAdjudicate Operation = "adjudicate"
	OpRoute      Operation = "route"
)

var sources = map[Operation]casefile.Stage{
	OpClassify:   casefile.StageInit,
	OpBait:       casefile.StageClassified,
	OpSynthesize: casefile.StageBaited,
	OpPresent:    casefile.StageSynthesized,
	OpAdjudicate: casefile.StageAwaitingReply,
	OpRoute:      casefile.StageAdjudicated,
}

func guard(op Operation, cf *casefile.CaseFile) error {
	if cf.Terminated() || cf.Stage != sources[op] {
		return &TransitionError{
			Operation:  op,
			Stage:      cf.Stage,
			Terminated: cf.Terminated(),
		}
	}
	return nil
}

// generate makes one completion for task and extracts schema from it. The
// raw text is returned even when extraction fails.
func (o *Orchestrator) generate(ctx context.Context, task Task, user string, schema extract.Schema) (string, *extract.Record, error) {
	raw, err := o.gateway.Complete(ctx, systemPrompt(task), user, o.params.For(task))
	if err != nil {
		return "", nil, err
	}

	rec, err := extract.Extract(raw, schema)
	return raw, rec, err
}

// text makes one completion for a task whose output is used as plain text.
func (o *Orchestrator) text(ctx context.Context, task Task, user string) (string, error) {
	raw, err := o.gateway.Complete(ctx, systemPrompt(task), user, o.params.For(task))
	if err != nil {
		return "", err
	}
	return trim(raw), nil
}

// fail records err against the stage the case file held when op ran.
func (o *Orchestrator) fail(ctx context.Context, cf *casefile.CaseFile, op Operation, err error) {
	kind := failureKind(err)

	cf.Fail(casefile.Failure{
		Operation: string(op),
		Stage:     cf.Stage,
		Kind:      kind,
		Detail:    truncate(err.Error(), 200),
		At:        o.now(),
	})

	attrs := []any{"session_id", cf.ID, "operation", op, "kind", kind, "error", err}
	var f *extract.Failure
	if errors.As(err, &f) {
		attrs = append(attrs, "raw", truncate(f.RawText, 200))
	}
	o.logger.WarnContext(ctx, "stage degraded", attrs...)
}

func failureKind(err error) string {
	var f *extract.Failure
	if errors.As(err, &f) {
		return string(f.Kind)
	}
	return string(gateway.KindOf(err))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
