package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kamusis/scout-cli/internal/intent"
	"github.com/kamusis/scout-cli/internal/registry"
)

// fakeRegistry records calls and can fail a configurable number of times
// before succeeding.
type fakeRegistry struct {
	searchCalls  []string
	browseCalls  []string
	failuresLeft int
	records      []registry.SkillRecord
}

func (f *fakeRegistry) Search(_ context.Context, query string, _ registry.Sort, _ int) ([]registry.SkillRecord, error) {
	f.searchCalls = append(f.searchCalls, query)
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, fmt.Errorf("%w: connection refused", registry.ErrUnavailable)
	}
	return f.records, nil
}

func (f *fakeRegistry) Browse(_ context.Context, category string, _ int) ([]registry.SkillRecord, error) {
	f.browseCalls = append(f.browseCalls, category)
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, fmt.Errorf("%w: connection refused", registry.ErrUnavailable)
	}
	return f.records, nil
}

func newDispatcher(reg registry.Client) *Dispatcher {
	return &Dispatcher{
		Registry:   reg,
		Synonyms:   DefaultSynonyms(),
		Roles:      DefaultRoles(),
		RetryDelay: time.Millisecond,
	}
}

func skill(name, desc string) registry.SkillRecord {
	return registry.SkillRecord{
		ID:          registry.Identifier{Owner: "acme", Repo: "skills", Name: name},
		DisplayName: name,
		Description: desc,
	}
}

func TestDispatch_DirectUsesRawQuery(t *testing.T) {
	reg := &fakeRegistry{records: []registry.SkillRecord{skill("a", "x")}}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.DirectQuery, true, "find skill for testing")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Strategy != StrategyDirect {
		t.Fatalf("unexpected strategy %s", res.Strategy)
	}
	if len(reg.searchCalls) != 1 || reg.searchCalls[0] != "find skill for testing" {
		t.Fatalf("unexpected search calls: %v", reg.searchCalls)
	}
}

func TestDispatch_TaskExpandsQuery(t *testing.T) {
	reg := &fakeRegistry{}
	d := newDispatcher(reg)

	_, err := d.Dispatch(context.Background(), intent.TaskBased, true, "I need to build a frontend interface")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(reg.searchCalls) != 1 {
		t.Fatalf("expected 1 search call, got %v", reg.searchCalls)
	}
	sent := reg.searchCalls[0]
	for _, term := range []string{"frontend", "ui", "interface", "client-side", "web-design"} {
		if !strings.Contains(sent, term) {
			t.Fatalf("expanded query %q missing %q", sent, term)
		}
	}
}

func TestDispatch_ExploratoryBrowsesNotSearches(t *testing.T) {
	reg := &fakeRegistry{records: []registry.SkillRecord{skill("a", "x")}}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.Exploratory, true, "show me popular skills")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(reg.searchCalls) != 0 {
		t.Fatalf("exploratory must not search, got %v", reg.searchCalls)
	}
	if len(reg.browseCalls) != 1 || reg.browseCalls[0] != "" {
		t.Fatalf("expected one uncategorized browse, got %v", reg.browseCalls)
	}
	if res.Strategy != StrategyExploratory {
		t.Fatalf("unexpected strategy %s", res.Strategy)
	}
}

func TestDispatch_ExploratoryDetectsCategory(t *testing.T) {
	reg := &fakeRegistry{}
	d := newDispatcher(reg)

	if _, err := d.Dispatch(context.Background(), intent.Exploratory, true, "browse testing skills"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(reg.browseCalls) != 1 || reg.browseCalls[0] != "testing" {
		t.Fatalf("expected browse with category testing, got %v", reg.browseCalls)
	}
}

func TestDispatch_UnclassifiedFallsBackToExploratory(t *testing.T) {
	reg := &fakeRegistry{}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.DirectQuery, false, "")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Strategy != StrategyExploratory {
		t.Fatalf("unclassified input must browse, got %s", res.Strategy)
	}
	if res.Records == nil {
		t.Fatal("records must never be nil")
	}
}

func TestDispatch_MetaIncludesSelfReferenceFirst(t *testing.T) {
	reg := &fakeRegistry{records: []registry.SkillRecord{skill("finder", "find skills")}}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.MetaDiscovery, true, "how do I find skills?")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(res.Records) < 3 {
		t.Fatalf("expected union of three sources, got %d records", len(res.Records))
	}
	self := SelfReference()
	if res.Records[0].ID != self.ID {
		t.Fatalf("self-reference must be first, got %s", res.Records[0].ID)
	}
	if res.SelfReference == nil || res.SelfReference.ID != self.ID {
		t.Fatal("result must carry the self-reference record")
	}
}

func TestDispatch_MetaDeduplicatesSelfReference(t *testing.T) {
	// The registry may itself return the discovery skill; the union must
	// not repeat it.
	reg := &fakeRegistry{records: []registry.SkillRecord{SelfReference(), skill("finder", "find skills")}}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.MetaDiscovery, true, "how do I find skills?")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	seen := 0
	for _, r := range res.Records {
		if r.ID == SelfReference().ID {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("self-reference appears %d times", seen)
	}
}

func TestDispatch_SynthesisBuildsPipeline(t *testing.T) {
	reg := &fakeRegistry{records: []registry.SkillRecord{
		skill("crawler", "search and fetch pages"),
		skill("generator", "generate scaffold code"),
		skill("checker", "validate and lint output"),
	}}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.SkillSynthesis, true, "combine skills into a build pipeline")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Pipeline == nil || len(res.Pipeline.Stages) == 0 {
		t.Fatal("expected a staged pipeline")
	}
	var roles []string
	for _, st := range res.Pipeline.Stages {
		roles = append(roles, st.Role)
	}
	want := []string{"discover", "build", "verify"}
	if len(roles) != len(want) {
		t.Fatalf("unexpected stages %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("stage %d: got %s want %s (stage order is fixed)", i, roles[i], want[i])
		}
	}
	if len(res.Records) != 3 {
		t.Fatalf("flat record list must be preserved, got %d", len(res.Records))
	}
}

func TestDispatch_RetriesOnceThenSucceeds(t *testing.T) {
	reg := &fakeRegistry{failuresLeft: 1, records: []registry.SkillRecord{skill("a", "x")}}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.DirectQuery, true, "find skill for testing")
	if err != nil {
		t.Fatalf("Dispatch after one failure: %v", err)
	}
	if len(reg.searchCalls) != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", len(reg.searchCalls))
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected records from the retry, got %d", len(res.Records))
	}
}

func TestDispatch_UnavailableAfterRetry(t *testing.T) {
	reg := &fakeRegistry{failuresLeft: 10}
	d := newDispatcher(reg)

	_, err := d.Dispatch(context.Background(), intent.DirectQuery, true, "find skill for testing")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(reg.searchCalls) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", len(reg.searchCalls))
	}
}

func TestDispatch_DeduplicatesWithinStrategy(t *testing.T) {
	dup := skill("a", "x")
	reg := &fakeRegistry{records: []registry.SkillRecord{dup, skill("b", "y"), dup}}
	d := newDispatcher(reg)

	res, err := d.Dispatch(context.Background(), intent.DirectQuery, true, "find skill a")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected deduplicated records, got %d", len(res.Records))
	}
}
