package intent

import (
	"strings"

	"github.com/kamusis/scout-cli/internal/textsim"
)

// Features are the query signals intent confidence is computed from. All of
// them come from lightweight pattern matching over the folded query text;
// none require the registry or any model call.
type Features struct {
	HasExplicitKeywords bool // names skills/categories with a finder verb
	DescribesTask       bool // verb + object describing work to do
	IsExploratory       bool // browse/explore vocabulary
	IsMeta              bool // asks about discovery itself
	IsSynthesis         bool // asks for skills combined into a flow
	WordCount           int

	skillToken  bool
	finderVerb  bool
	quoted      bool
	taskVerbAt  int // token index of the first task verb, -1 if none
	taskObject  bool
	browseHits  int
	synthStrong int
	synthWeak   int
	firstPerson bool
}

var finderVerbs = tokenSet("find", "search", "get", "locate", "need", "want", "looking", "recommend")

var browseVocab = tokenSet("show", "browse", "explore", "popular", "trending", "list", "discover",
	"available", "what", "top", "best", "interesting")

var taskVerbStems = []string{"build", "creat", "implement", "writ", "debug", "fix", "test",
	"deploy", "design", "refactor", "migrat", "optimi", "analy", "generat", "convert", "automat"}

var synthStrong = tokenSet("combine", "combining", "chain", "chained", "orchestrate", "compose",
	"pipeline", "end-to-end")

var synthWeak = tokenSet("workflow", "multiple", "together", "sequence", "stages")

var metaPhrases = []string{
	"how do i find", "how to find", "how can i find", "how do i discover",
	"how to discover", "how do i search", "how to search for skills",
	"where do i find", "where are skills", "where can i find",
	"how does skill discovery", "how does discovery",
}

var firstPersonPhrases = []string{"i need", "i want", "i have to", "help me", "i'm trying", "i am trying"}

func tokenSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// ExtractFeatures derives all classification signals from the query text.
// Empty or whitespace-only input yields a zero Features value.
func ExtractFeatures(text string) Features {
	f := Features{taskVerbAt: -1}
	folded := textsim.Normalize(strings.TrimSpace(text))
	tokens := textsim.Tokenize(folded)
	f.WordCount = len(tokens)
	if f.WordCount == 0 {
		return f
	}

	for _, p := range metaPhrases {
		if strings.Contains(folded, p) {
			f.IsMeta = true
			break
		}
	}
	for _, p := range firstPersonPhrases {
		if strings.Contains(folded, p) {
			f.firstPerson = true
			break
		}
	}
	f.quoted = strings.Count(text, `"`) >= 2 || strings.Count(text, "'") >= 2

	for i, tok := range tokens {
		if tok == "skill" || tok == "skills" {
			f.skillToken = true
		}
		if _, ok := finderVerbs[tok]; ok {
			f.finderVerb = true
		}
		if _, ok := browseVocab[tok]; ok {
			f.browseHits++
		}
		if _, ok := synthStrong[tok]; ok {
			f.synthStrong++
		}
		if _, ok := synthWeak[tok]; ok {
			f.synthWeak++
		}
		if f.taskVerbAt < 0 {
			for _, stem := range taskVerbStems {
				if strings.HasPrefix(tok, stem) {
					f.taskVerbAt = i
					break
				}
			}
		}
	}

	// A task verb needs something after it to act on.
	f.taskObject = f.taskVerbAt >= 0 && f.WordCount-f.taskVerbAt >= 2

	f.HasExplicitKeywords = f.skillToken && f.finderVerb && !f.IsMeta
	f.DescribesTask = f.taskVerbAt >= 0
	f.IsExploratory = f.browseHits > 0
	f.IsSynthesis = f.synthStrong > 0 || f.synthWeak > 0
	return f
}

// Confidence functions are monotonic in matched-feature count and clamped to
// [0,1]. The constants are tuned against the fixed thresholds in intent.go.

func (f Features) directConfidence() float64 {
	if !f.HasExplicitKeywords {
		if f.skillToken {
			return 0.40
		}
		return 0
	}
	c := 0.75
	if f.quoted {
		c += 0.10
	}
	return clamp01(c)
}

func (f Features) taskConfidence() float64 {
	if !f.DescribesTask {
		return 0
	}
	c := 0.45
	if f.taskObject {
		c += 0.20
	}
	if f.firstPerson {
		c += 0.10
	}
	return clamp01(c)
}

func (f Features) exploratoryConfidence() float64 {
	if f.browseHits == 0 {
		return 0
	}
	return clamp01(0.50 + 0.10*float64(f.browseHits-1))
}

func (f Features) metaConfidence() float64 {
	if !f.IsMeta {
		return 0
	}
	c := 0.80
	if f.skillToken {
		c += 0.05
	}
	return clamp01(c)
}

func (f Features) synthesisConfidence() float64 {
	if f.synthStrong == 0 && f.synthWeak == 0 {
		return 0
	}
	c := 0.45*bool01(f.synthStrong > 0) + 0.25*float64(min(f.synthStrong, 2)) + 0.10*float64(min(f.synthWeak, 2))
	return clamp01(c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func bool01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
