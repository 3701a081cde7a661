package intent

import "testing"

func TestClassify_Scenarios(t *testing.T) {
	cases := []struct {
		query string
		want  State
	}{
		{"find skill for testing debugging", DirectQuery},
		{"I need to build a frontend interface", TaskBased},
		{"show me popular skills", Exploratory},
		{"how do I find skills?", MetaDiscovery},
		{"combine skills into a release workflow", SkillSynthesis},
	}
	for _, tc := range cases {
		res, ok := Classify(tc.query)
		if !ok {
			t.Fatalf("Classify(%q): no state cleared its threshold", tc.query)
		}
		if res.State != tc.want {
			t.Fatalf("Classify(%q) = %s (%.2f), want %s", tc.query, res.State, res.Confidence, tc.want)
		}
		if res.Confidence < res.State.Threshold() {
			t.Fatalf("Classify(%q): confidence %.2f below threshold %.2f", tc.query, res.Confidence, res.State.Threshold())
		}
	}
}

func TestClassify_DirectConfidenceClearsThreshold(t *testing.T) {
	res, ok := Classify("find skill for testing debugging")
	if !ok || res.State != DirectQuery {
		t.Fatalf("expected DirectQuery, got %v ok=%v", res.State, ok)
	}
	if res.Confidence < 0.70 {
		t.Fatalf("expected confidence >= 0.70, got %.2f", res.Confidence)
	}
}

func TestClassify_EmptyAndUnmatched(t *testing.T) {
	if _, ok := Classify(""); ok {
		t.Fatal("empty query must not classify")
	}
	if _, ok := Classify("   \t  "); ok {
		t.Fatal("whitespace query must not classify")
	}
	// A query matching zero features degrades to no classification, not a
	// crash.
	if _, ok := Classify("zanzibar quokka"); ok {
		t.Fatal("featureless query must not classify")
	}
}

func TestClassify_ConfidenceBounds(t *testing.T) {
	queries := []string{
		"find skill for testing debugging",
		"I need to build a frontend interface combining multiple skills together in a pipeline workflow",
		"show me popular trending top best skills",
		"how do I find skills?",
	}
	for _, q := range queries {
		res, ok := Classify(q)
		if !ok {
			continue
		}
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Fatalf("Classify(%q): confidence %f out of [0,1]", q, res.Confidence)
		}
	}
}

func TestExtractFeatures_Monotonic(t *testing.T) {
	// Adding a second browse-vocabulary token must not lower exploratory
	// confidence.
	one := ExtractFeatures("browse skills").exploratoryConfidence()
	two := ExtractFeatures("browse popular skills").exploratoryConfidence()
	if two < one {
		t.Fatalf("exploratory confidence decreased with more matched features: %f -> %f", one, two)
	}
}

func TestClassify_TieBreakPrefersSpecific(t *testing.T) {
	// Meta phrasing plus explicit skill tokens: meta must win because the
	// direct-query feature is suppressed for meta questions.
	res, ok := Classify("how do I find skills for testing?")
	if !ok {
		t.Fatal("expected a classification")
	}
	if res.State != MetaDiscovery {
		t.Fatalf("expected MetaDiscovery, got %s", res.State)
	}
}
