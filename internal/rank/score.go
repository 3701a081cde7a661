package rank

import (
	"math"
	"time"

	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/kamusis/scout-cli/internal/session"
	"github.com/kamusis/scout-cli/internal/textsim"
)

const (
	// popularityCeiling is the download count that saturates the
	// log-scaled popularity score at 1.0.
	popularityCeiling = 100000

	// recencyHalfScaleDays is the e-folding time of the recency decay.
	recencyHalfScaleDays = 180.0
)

// RelevanceScore is the bag-of-words cosine similarity between the query and
// the skill's name plus description, in [0,1]. A missing description leaves
// only the name to match against; a fully empty record scores 0.
func RelevanceScore(query string, rec registry.SkillRecord) float64 {
	return textsim.Similarity(query, rec.DisplayName+" "+rec.Description)
}

// PopularityScore is log(downloads+1)/log(100001), clamped to [0,1].
func PopularityScore(downloads int64) float64 {
	if downloads <= 0 {
		return 0
	}
	v := math.Log(float64(downloads)+1) / math.Log(popularityCeiling+1)
	if v > 1 {
		return 1
	}
	return v
}

// RecencyScore is exp(-days_since_update/180). Records with no update
// timestamp score 0; timestamps in the future clamp to 1.
func RecencyScore(updatedAt, now time.Time) float64 {
	if updatedAt.IsZero() {
		return 0
	}
	days := now.Sub(updatedAt).Hours() / 24
	if days <= 0 {
		return 1
	}
	return math.Exp(-days / recencyHalfScaleDays)
}

// RedundancyScore is the maximum description similarity between rec and the
// skills already surfaced this session, in [0,1]. An empty session or a
// record with no description to compare scores 0, i.e. maximally novel.
func RedundancyScore(rec registry.SkillRecord, presented []session.Entry) float64 {
	if rec.Description == "" {
		return 0
	}
	vec := textsim.Vector(rec.Description)
	var max float64
	for _, e := range presented {
		if e.Description == "" {
			continue
		}
		if s := textsim.Cosine(vec, textsim.Vector(e.Description)); s > max {
			max = s
		}
	}
	return max
}
