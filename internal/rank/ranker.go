// Package rank scores dispatched candidates with a multi-objective weighted
// composite and removes near-duplicate results.
package rank

import (
	"sort"
	"time"

	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/kamusis/scout-cli/internal/session"
	"github.com/kamusis/scout-cli/internal/textsim"
)

// DefaultTopK is how many results a ranking call surfaces by default.
const DefaultTopK = 3

// DefaultSimilarityCeiling is the pairwise description similarity above
// which the lower-scored of two results is dropped as a near-duplicate.
const DefaultSimilarityCeiling = 0.85

// ScoredSkill is a candidate annotated with its sub-scores and composite.
type ScoredSkill struct {
	Record     registry.SkillRecord
	Relevance  float64
	Popularity float64
	Recency    float64
	Redundancy float64
	Score      float64
}

// Options tune one ranking call.
type Options struct {
	Weights Weights

	// TopK truncates the output; zero means DefaultTopK.
	TopK int

	// ShowMore suspends the novelty filter for this one call, so skills
	// already surfaced in the session may appear again.
	ShowMore bool

	// SimilarityCeiling overrides the near-duplicate threshold; zero means
	// DefaultSimilarityCeiling.
	SimilarityCeiling float64

	// Now fixes the clock for recency scoring; zero means time.Now().
	Now time.Time
}

// Rank scores candidates against the query and session, sorts them by
// non-increasing composite score, drops near-duplicates and repeats, and
// truncates to top-K.
//
// Rank never mutates the session; the caller records the surfaced skills
// afterwards. Calling it twice with unchanged inputs yields identical
// output. The returned slice is never nil.
func Rank(candidates []registry.SkillRecord, query string, sess *session.Store, opts Options) []ScoredSkill {
	if opts.Weights == (Weights{}) {
		opts.Weights = Balanced()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SimilarityCeiling <= 0 {
		opts.SimilarityCeiling = DefaultSimilarityCeiling
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var presented []session.Entry
	if sess != nil {
		presented = sess.Entries()
	}

	scored := make([]ScoredSkill, 0, len(candidates))
	for _, rec := range candidates {
		if sess != nil && !opts.ShowMore && sess.Contains(rec.ID.String()) {
			continue
		}
		s := ScoredSkill{
			Record:     rec,
			Relevance:  RelevanceScore(query, rec),
			Popularity: PopularityScore(rec.Downloads),
			Recency:    RecencyScore(rec.UpdatedAt, now),
			Redundancy: RedundancyScore(rec, presented),
		}
		w := opts.Weights
		s.Score = w.Relevance*s.Relevance + w.Popularity*s.Popularity +
			w.Recency*s.Recency - w.Redundancy*s.Redundancy
		scored = append(scored, s)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Record.ID.String() < scored[j].Record.ID.String()
		}
		return scored[i].Score > scored[j].Score
	})

	// Greedy keep-first dedup: a candidate too similar to any higher-scored
	// kept result is dropped.
	kept := make([]ScoredSkill, 0, len(scored))
	for _, s := range scored {
		dup := false
		for _, k := range kept {
			if textsim.Similarity(s.Record.Description, k.Record.Description) > opts.SimilarityCeiling {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, s)
		if len(kept) == opts.TopK {
			break
		}
	}
	return kept
}
