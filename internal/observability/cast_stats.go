// Package observability tracks cast decisions for policy review.
package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/arkilian/typecast/internal/casts"
	"github.com/arkilian/typecast/pkg/types"
)

// CastStats counts decisions per rule and remembers the root pairs for which
// no rule table allows even an explicit cast.
type CastStats struct {
	mu        sync.RWMutex
	ruleFreq  map[casts.Rule]int64
	uncovered map[pairKey]*PairStats
	total     int64
	implicit  int64
	explicit  int64
	window    time.Duration
	now       func() time.Time
}

type pairKey struct {
	source, target types.TypeRoot
}

// PairStats holds statistics for one uncovered (source root, target root) pair.
type PairStats struct {
	Source    types.TypeRoot
	Target    types.TypeRoot
	Frequency int64
	LastSeen  time.Time
	Example   string // first pair seen, "SOURCE -> TARGET"
}

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Total    int64
	Implicit int64
	Explicit int64
	Rules    map[casts.Rule]int64
}

// NewCastStats creates a new tracker.
// window: how long an uncovered pair is kept after it was last seen
func NewCastStats(window time.Duration) *CastStats {
	return &CastStats{
		ruleFreq:  make(map[casts.Rule]int64),
		uncovered: make(map[pairKey]*PairStats),
		window:    window,
		now:       time.Now,
	}
}

// Record counts one decision. This method is O(1) and thread-safe.
func (s *CastStats) Record(source, target types.LogicalType, d casts.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if d.Implicit {
		s.implicit++
	}
	if d.Explicit {
		s.explicit++
	}
	s.ruleFreq[d.Rule]++

	if source == nil || target == nil {
		return
	}
	if d.Rule != casts.RuleUncovered {
		return
	}

	key := pairKey{source.Root(), target.Root()}
	stats, exists := s.uncovered[key]
	if !exists {
		stats = &PairStats{
			Source:  key.source,
			Target:  key.target,
			Example: source.String() + " -> " + target.String(),
		}
		s.uncovered[key] = stats
	}
	stats.Frequency++
	stats.LastSeen = s.now()
}

// Observe wraps resolve so that every decision it returns is recorded.
func (s *CastStats) Observe(resolve casts.ResolveFunc) casts.ResolveFunc {
	if resolve == nil {
		resolve = casts.Resolve
	}
	return func(source, target types.LogicalType) casts.Decision {
		d := resolve(source, target)
		s.Record(source, target, d)
		return d
	}
}

// Summary returns a copy of the decision counters.
func (s *CastStats) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make(map[casts.Rule]int64, len(s.ruleFreq))
	for r, n := range s.ruleFreq {
		rules[r] = n
	}
	return Summary{
		Total:    s.total,
		Implicit: s.implicit,
		Explicit: s.explicit,
		Rules:    rules,
	}
}

// TopUncovered returns the top N uncovered pairs by frequency.
// Returns copies sorted by frequency (descending), then by roots.
func (s *CastStats) TopUncovered(n int) []PairStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.uncovered) == 0 {
		return []PairStats{}
	}

	stats := make([]PairStats, 0, len(s.uncovered))
	for _, p := range s.uncovered {
		stats = append(stats, *p)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Frequency != stats[j].Frequency {
			return stats[i].Frequency > stats[j].Frequency
		}
		if stats[i].Source != stats[j].Source {
			return stats[i].Source < stats[j].Source
		}
		return stats[i].Target < stats[j].Target
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// Prune removes uncovered pairs where time.Since(LastSeen) > window.
// This should be called periodically.
func (s *CastStats) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := s.now().Add(-s.window)
	pruned := 0
	for key, stats := range s.uncovered {
		if stats.LastSeen.Before(threshold) {
			delete(s.uncovered, key)
			pruned++
		}
	}
	return pruned
}
