package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/arkilian/typecast/internal/casts"
	"github.com/arkilian/typecast/pkg/types"
)

// TestRecordConcurrent tests concurrent Record calls for race conditions.
func TestRecordConcurrent(t *testing.T) {
	cs := NewCastStats(time.Hour)
	resolve := cs.Observe(casts.Resolve)

	var wg sync.WaitGroup
	numGoroutines := 10
	recordsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				resolve(types.NewIntType(), types.NewBigIntType())
				resolve(types.NewBooleanType(), types.NewDateType())
			}
		}()
	}
	wg.Wait()

	summary := cs.Summary()
	expected := int64(numGoroutines * recordsPerGoroutine)
	if summary.Total != 2*expected {
		t.Errorf("total = %d, want %d", summary.Total, 2*expected)
	}
	if summary.Implicit != expected || summary.Explicit != expected {
		t.Errorf("implicit/explicit = %d/%d, want %d/%d", summary.Implicit, summary.Explicit, expected, expected)
	}
	if summary.Rules[casts.RuleRootTable] != expected || summary.Rules[casts.RuleUncovered] != expected {
		t.Errorf("unexpected rule counts: %v", summary.Rules)
	}

	top := cs.TopUncovered(10)
	if len(top) != 1 || top[0].Frequency != expected {
		t.Fatalf("unexpected uncovered pairs: %+v", top)
	}
	if top[0].Source != types.RootBoolean || top[0].Target != types.RootDate {
		t.Errorf("unexpected pair %s -> %s", top[0].Source, top[0].Target)
	}
	if top[0].Example != "BOOLEAN -> DATE" {
		t.Errorf("example = %q", top[0].Example)
	}
}

// TestTopUncoveredOrdering tests that TopUncovered sorts by frequency.
func TestTopUncoveredOrdering(t *testing.T) {
	cs := NewCastStats(time.Hour)
	resolve := cs.Observe(nil)

	for i := 0; i < 5; i++ {
		resolve(types.NewBooleanType(), types.NewDateType())
	}
	for i := 0; i < 20; i++ {
		resolve(types.NewDateType(), types.NewBooleanType())
	}
	for i := 0; i < 10; i++ {
		resolve(types.NewDoubleType(), types.Must(types.NewTimeType(0)))
	}

	top := cs.TopUncovered(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(top))
	}
	if top[0].Source != types.RootDate || top[0].Frequency != 20 {
		t.Errorf("expected DATE -> BOOLEAN first, got %+v", top[0])
	}
	if top[1].Source != types.RootDouble || top[1].Frequency != 10 {
		t.Errorf("expected DOUBLE -> TIME second, got %+v", top[1])
	}
}

// TestCoveredPairsAreNotTracked tests that only uncovered decisions are kept.
func TestCoveredPairsAreNotTracked(t *testing.T) {
	cs := NewCastStats(time.Hour)
	resolve := cs.Observe(nil)

	resolve(types.NewIntType(), types.NewBooleanType())
	resolve(types.NewIntType(), types.Must(types.NewArrayType(types.NewIntType())))
	resolve(types.NewNullType(), types.NewIntType())
	resolve(nil, types.NewIntType())

	if top := cs.TopUncovered(10); len(top) != 0 {
		t.Errorf("expected no uncovered pairs, got %+v", top)
	}
	if cs.Summary().Total != 4 {
		t.Errorf("total = %d, want 4", cs.Summary().Total)
	}
}

// TestPruneRemovesOldEntries tests that Prune removes pairs older than the window.
func TestPruneRemovesOldEntries(t *testing.T) {
	cs := NewCastStats(time.Minute)
	now := time.Now()
	cs.now = func() time.Time { return now }

	cs.Observe(nil)(types.NewBooleanType(), types.NewDateType())
	if pruned := cs.Prune(); pruned != 0 {
		t.Errorf("fresh entry pruned")
	}

	now = now.Add(2 * time.Minute)
	if pruned := cs.Prune(); pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if top := cs.TopUncovered(10); len(top) != 0 {
		t.Errorf("expected 0 pairs after prune, got %d", len(top))
	}
	if cs.Summary().Total != 1 {
		t.Error("Prune should keep the decision counters")
	}
}

// TestTopUncoveredEmpty tests empty and non-positive limits.
func TestTopUncoveredEmpty(t *testing.T) {
	cs := NewCastStats(time.Hour)
	if top := cs.TopUncovered(5); len(top) != 0 {
		t.Errorf("expected empty result, got %d", len(top))
	}
	cs.Observe(nil)(types.NewBooleanType(), types.NewDateType())
	if top := cs.TopUncovered(0); len(top) != 0 {
		t.Errorf("expected empty result for n=0, got %d", len(top))
	}
}
