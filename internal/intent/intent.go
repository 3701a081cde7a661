// Package intent classifies a free-text discovery query into one of five
// discovery intents using deterministic feature extraction and fixed
// confidence thresholds. Classification is a pure function of the query text
// so the same query always lands in the same state.
package intent

// State is one of the closed set of discovery intents.
type State int

const (
	// DirectQuery: the user names skills or categories explicitly.
	DirectQuery State = iota
	// TaskBased: the user describes a task to accomplish.
	TaskBased
	// Exploratory: the user wants to browse what exists.
	Exploratory
	// MetaDiscovery: the user asks about skill discovery itself.
	MetaDiscovery
	// SkillSynthesis: the user wants several skills combined into a flow.
	SkillSynthesis
)

func (s State) String() string {
	switch s {
	case DirectQuery:
		return "direct-query"
	case TaskBased:
		return "task-based"
	case Exploratory:
		return "exploratory"
	case MetaDiscovery:
		return "meta-discovery"
	case SkillSynthesis:
		return "skill-synthesis"
	}
	return "unknown"
}

// Threshold is the minimum confidence required to select the state.
func (s State) Threshold() float64 {
	switch s {
	case DirectQuery:
		return 0.70
	case TaskBased:
		return 0.60
	case Exploratory:
		return 0.50
	case MetaDiscovery:
		return 0.75
	case SkillSynthesis:
		return 0.65
	}
	return 1
}

// specificity orders states most-specific first; it breaks confidence ties.
var specificity = []State{DirectQuery, MetaDiscovery, SkillSynthesis, TaskBased, Exploratory}

// Result is a selected state with its confidence and the features that
// produced it.
type Result struct {
	State      State
	Confidence float64
	Features   Features
}

// Classify maps query text to at most one intent state. The second return is
// false when the text is empty or no state clears its threshold; callers fall
// back to exploratory browsing in that case.
func Classify(text string) (Result, bool) {
	f := ExtractFeatures(text)
	if f.WordCount == 0 {
		return Result{}, false
	}

	conf := map[State]float64{
		DirectQuery:    f.directConfidence(),
		TaskBased:      f.taskConfidence(),
		Exploratory:    f.exploratoryConfidence(),
		MetaDiscovery:  f.metaConfidence(),
		SkillSynthesis: f.synthesisConfidence(),
	}

	best := Result{Confidence: -1}
	found := false
	for _, st := range specificity {
		c := conf[st]
		if c < st.Threshold() {
			continue
		}
		// Strict > keeps the more specific state on ties.
		if c > best.Confidence {
			best = Result{State: st, Confidence: c, Features: f}
			found = true
		}
	}
	return best, found
}
