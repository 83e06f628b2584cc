// Package metrics aggregates adjudication outcomes across every session.
package metrics

import (
	"maps"
	"sync"
	"time"

	"github.com/JaimeStill/snare/internal/casefile"
)

// Snapshot is a point-in-time copy of the ledger's running totals. Means
// are derived on read from the sums and their counts.
type Snapshot struct {
	Count               int                      `json:"count"`
	SumAttractiveness   float64                  `json:"sum_attractiveness"`
	AttractivenessCount int                      `json:"attractiveness_count"`
	SumFeasibility      float64                  `json:"sum_feasibility"`
	FeasibilityCount    int                      `json:"feasibility_count"`
	VerdictCounts       map[casefile.Verdict]int `json:"verdict_counts"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

func (s Snapshot) MeanAttractiveness() float64 {
	if s.AttractivenessCount == 0 {
		return 0
	}
	return s.SumAttractiveness / float64(s.AttractivenessCount)
}

func (s Snapshot) MeanFeasibility() float64 {
	if s.FeasibilityCount == 0 {
		return 0
	}
	return s.SumFeasibility / float64(s.FeasibilityCount)
}

// Report is the read view served to operators.
type Report struct {
	Snapshot
	MeanAttractiveness float64 `json:"mean_attractiveness"`
	MeanFeasibility    float64 `json:"mean_feasibility"`
}

func (s Snapshot) Report() Report {
	return Report{
		Snapshot:           s,
		MeanAttractiveness: s.MeanAttractiveness(),
		MeanFeasibility:    s.MeanFeasibility(),
	}
}

// Ledger is the process-wide aggregate of recorded judgments. It is safe for
// concurrent use; each Record is atomic in isolation.
type Ledger struct {
	mu   sync.Mutex
	snap Snapshot
	now  func() time.Time
}

func NewLedger() *Ledger {
	return Restore(Snapshot{})
}

// Restore returns a ledger continuing from a previously persisted snapshot.
func Restore(s Snapshot) *Ledger {
	s.VerdictCounts = maps.Clone(s.VerdictCounts)
	if s.VerdictCounts == nil {
		s.VerdictCounts = make(map[casefile.Verdict]int)
	}
	return &Ledger{snap: s, now: time.Now}
}

// Record adds one judgment. Absent scores leave their sums untouched, while
// the count and verdict tally always advance.
func (l *Ledger) Record(j casefile.Judgment) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.snap.Count++
	l.snap.VerdictCounts[j.Verdict]++

	if j.AttractivenessScore != nil {
		l.snap.SumAttractiveness += *j.AttractivenessScore
		l.snap.AttractivenessCount++
	}
	if j.FeasibilityScore != nil {
		l.snap.SumFeasibility += *j.FeasibilityScore
		l.snap.FeasibilityCount++
	}

	l.snap.UpdatedAt = l.now().UTC()
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.snap
	s.VerdictCounts = maps.Clone(l.snap.VerdictCounts)
	return s
}

// Absorb folds a persisted snapshot into the running totals. Judgments
// recorded before the call are kept; UpdatedAt becomes the later of the two.
func (l *Ledger) Absorb(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.snap.Count += s.Count
	l.snap.SumAttractiveness += s.SumAttractiveness
	l.snap.AttractivenessCount += s.AttractivenessCount
	l.snap.SumFeasibility += s.SumFeasibility
	l.snap.FeasibilityCount += s.FeasibilityCount
	for v, n := range s.VerdictCounts {
		l.snap.VerdictCounts[v] += n
	}
	if s.UpdatedAt.After(l.snap.UpdatedAt) {
		l.snap.UpdatedAt = s.UpdatedAt
	}
}
