package metrics_test

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/internal/metrics"
)

func scored(v casefile.Verdict, a, f float64) casefile.Judgment {
	return casefile.Judgment{Verdict: v, AttractivenessScore: &a, FeasibilityScore: &f}
}

func TestLedgerRecord(t *testing.T) {
	l := metrics.NewLedger()

	inputs := []casefile.Judgment{
		scored(casefile.VerdictUnclear, 0.2, 0.1),
		scored(casefile.VerdictConfirmedHigh, 0.9, 0.8),
		scored(casefile.VerdictSuspicion, 1.0, 0.0),
	}
	for _, j := range inputs {
		l.Record(j)
	}

	s := l.Snapshot()
	if s.Count != len(inputs) {
		t.Errorf("Count = %d, want %d", s.Count, len(inputs))
	}

	for name, mean := range map[string]float64{
		"attractiveness": s.MeanAttractiveness(),
		"feasibility":    s.MeanFeasibility(),
	} {
		if mean < 0 || mean > 1 {
			t.Errorf("mean %s = %v, want within [0,1]", name, mean)
		}
	}

	if got := s.MeanAttractiveness(); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("MeanAttractiveness = %v, want 0.7", got)
	}
	if s.VerdictCounts[casefile.VerdictSuspicion] != 1 {
		t.Errorf("VerdictCounts = %v", s.VerdictCounts)
	}
}

func TestLedgerSentinel(t *testing.T) {
	l := metrics.NewLedger()
	l.Record(scored(casefile.VerdictConfirmedModerate, 0.5, 0.5))

	before := l.Snapshot()
	l.Record(casefile.SentinelJudgment())
	after := l.Snapshot()

	if after.Count != before.Count+1 {
		t.Errorf("Count = %d, want %d", after.Count, before.Count+1)
	}
	if after.SumAttractiveness != before.SumAttractiveness {
		t.Errorf("SumAttractiveness = %v, want %v", after.SumAttractiveness, before.SumAttractiveness)
	}
	if after.SumFeasibility != before.SumFeasibility {
		t.Errorf("SumFeasibility = %v, want %v", after.SumFeasibility, before.SumFeasibility)
	}
	if after.VerdictCounts[casefile.VerdictUnclear] != 1 {
		t.Errorf("unclear count = %d, want 1", after.VerdictCounts[casefile.VerdictUnclear])
	}
	if after.MeanAttractiveness() != 0.5 {
		t.Errorf("MeanAttractiveness = %v, want 0.5", after.MeanAttractiveness())
	}
}

func TestLedgerEmpty(t *testing.T) {
	s := metrics.NewLedger().Snapshot()
	if s.Count != 0 || s.MeanAttractiveness() != 0 || s.MeanFeasibility() != 0 {
		t.Errorf("empty snapshot = %+v", s)
	}
}

func TestLedgerConcurrentRecord(t *testing.T) {
	l := metrics.NewLedger()

	const workers, per = 16, 250
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for range per {
				l.Record(scored(casefile.VerdictUnclear, 0.5, 0.25))
			}
		})
	}
	wg.Wait()

	s := l.Snapshot()
	n := workers * per
	if s.Count != n {
		t.Errorf("Count = %d, want %d", s.Count, n)
	}
	if s.AttractivenessCount != n || s.FeasibilityCount != n {
		t.Errorf("score counts = %d/%d, want %d", s.AttractivenessCount, s.FeasibilityCount, n)
	}
	if s.SumAttractiveness != float64(n)*0.5 {
		t.Errorf("SumAttractiveness = %v, want %v", s.SumAttractiveness, float64(n)*0.5)
	}
	if s.VerdictCounts[casefile.VerdictUnclear] != n {
		t.Errorf("VerdictCounts = %v", s.VerdictCounts)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	l := metrics.NewLedger()
	l.Record(scored(casefile.VerdictRejected, 0.1, 0.1))

	s := l.Snapshot()
	s.VerdictCounts[casefile.VerdictRejected] = 99

	if got := l.Snapshot().VerdictCounts[casefile.VerdictRejected]; got != 1 {
		t.Errorf("ledger mutated through snapshot: %d", got)
	}
}

func TestRestore(t *testing.T) {
	persisted := metrics.Snapshot{
		Count:               2,
		SumAttractiveness:   1.0,
		AttractivenessCount: 2,
		SumFeasibility:      0.4,
		FeasibilityCount:    2,
		VerdictCounts:       map[casefile.Verdict]int{casefile.VerdictUnclear: 2},
	}

	l := metrics.Restore(persisted)
	l.Record(scored(casefile.VerdictUnclear, 0.5, 0.2))

	s := l.Snapshot()
	if s.Count != 3 || s.VerdictCounts[casefile.VerdictUnclear] != 3 {
		t.Errorf("restored snapshot = %+v", s)
	}
	if persisted.VerdictCounts[casefile.VerdictUnclear] != 2 {
		t.Error("Restore aliased the persisted verdict counts")
	}

	t.Run("nil counts", func(t *testing.T) {
		l := metrics.Restore(metrics.Snapshot{})
		l.Record(casefile.SentinelJudgment())
		if l.Snapshot().Count != 1 {
			t.Error("Record on restored empty ledger failed")
		}
	})
}

func TestAbsorb(t *testing.T) {
	l := metrics.NewLedger()
	l.Record(scored(casefile.VerdictUnclear, 0.4, 0.2))

	l.Absorb(metrics.Snapshot{
		Count:               3,
		SumAttractiveness:   1.2,
		AttractivenessCount: 2,
		SumFeasibility:      0.6,
		FeasibilityCount:    2,
		VerdictCounts:       map[casefile.Verdict]int{casefile.VerdictUnclear: 1, "": 2},
	})

	s := l.Snapshot()
	if s.Count != 4 || s.AttractivenessCount != 3 || s.FeasibilityCount != 3 {
		t.Errorf("counts = %d/%d/%d, want 4/3/3", s.Count, s.AttractivenessCount, s.FeasibilityCount)
	}
	if got := s.MeanAttractiveness(); math.Abs(got-1.6/3) > 1e-9 {
		t.Errorf("MeanAttractiveness = %v, want %v", got, 1.6/3)
	}
	if s.VerdictCounts[casefile.VerdictUnclear] != 2 || s.VerdictCounts[""] != 2 {
		t.Errorf("VerdictCounts = %v", s.VerdictCounts)
	}
}

func TestHandler(t *testing.T) {
	l := metrics.NewLedger()
	l.Record(scored(casefile.VerdictConfirmedHigh, 0.8, 0.6))

	h := metrics.NewHandler(l)
	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var report metrics.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Count != 1 || report.MeanAttractiveness != 0.8 {
		t.Errorf("report = %+v", report)
	}
	if report.VerdictCounts[casefile.VerdictConfirmedHigh] != 1 {
		t.Errorf("VerdictCounts = %v", report.VerdictCounts)
	}

	group := h.Routes()
	if group.Prefix != "/metrics" || len(group.Routes) != 1 {
		t.Errorf("Routes = %+v", group)
	}
}
