package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/kamusis/scout-cli/internal/dispatch"
	"github.com/kamusis/scout-cli/internal/intent"
	"github.com/kamusis/scout-cli/internal/rank"
	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/kamusis/scout-cli/internal/session"
)

type fakeRegistry struct {
	down    bool
	records []registry.SkillRecord
}

func (f *fakeRegistry) Search(context.Context, string, registry.Sort, int) ([]registry.SkillRecord, error) {
	if f.down {
		return nil, fmt.Errorf("%w: connection refused", registry.ErrUnavailable)
	}
	return f.records, nil
}

func (f *fakeRegistry) Browse(context.Context, string, int) ([]registry.SkillRecord, error) {
	if f.down {
		return nil, fmt.Errorf("%w: connection refused", registry.ErrUnavailable)
	}
	return f.records, nil
}

func skill(name, desc string, downloads int64) registry.SkillRecord {
	return registry.SkillRecord{
		ID:          registry.Identifier{Owner: "acme", Repo: "skills", Name: name},
		DisplayName: name,
		Description: desc,
		Downloads:   downloads,
		UpdatedAt:   time.Now().AddDate(0, 0, -7),
	}
}

func newService(t *testing.T, reg registry.Client) *Service {
	t.Helper()
	return &Service{
		Dispatcher: &dispatch.Dispatcher{
			Registry:   reg,
			Synonyms:   dispatch.DefaultSynonyms(),
			Roles:      dispatch.DefaultRoles(),
			RetryDelay: time.Millisecond,
		},
		Cache:   registry.NewCache(filepath.Join(t.TempDir(), "popular")),
		Weights: rank.Balanced(),
		TopK:    3,
	}
}

func TestDiscover_EndToEnd(t *testing.T) {
	reg := &fakeRegistry{records: []registry.SkillRecord{
		skill("test-runner", "run tests with coverage", 5000),
		skill("debugger", "interactive breakpoint debugging", 3000),
	}}
	svc := newService(t, reg)
	sess := session.NewStore()

	resp, err := svc.Discover(context.Background(), Request{Query: "find skill for testing debugging"}, sess)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if resp.Intent != intent.DirectQuery || !resp.Classified {
		t.Fatalf("unexpected classification: %v classified=%v", resp.Intent, resp.Classified)
	}
	if resp.Strategy != dispatch.StrategyDirect {
		t.Fatalf("unexpected strategy %s", resp.Strategy)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results")
	}
	if len(resp.Surfaced) != len(resp.Results) {
		t.Fatalf("surfaced %d but presented %d", len(resp.Surfaced), len(resp.Results))
	}
	if sess.Len() != len(resp.Results) {
		t.Fatalf("session should reflect surfaced skills, got %d", sess.Len())
	}
}

func TestDiscover_SecondCallFiltersRepeats(t *testing.T) {
	x := skill("x", "deploy services to kubernetes clusters", 5000)
	reg := &fakeRegistry{records: []registry.SkillRecord{x}}
	svc := newService(t, reg)
	sess := session.NewStore()

	first, err := svc.Discover(context.Background(), Request{Query: "find skill for deployment"}, sess)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(first.Results) != 1 {
		t.Fatalf("expected x in first call, got %d results", len(first.Results))
	}

	second, err := svc.Discover(context.Background(), Request{Query: "find skill for deployment"}, sess)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(second.Results) != 0 {
		t.Fatalf("repeat skill must be filtered, got %d results", len(second.Results))
	}

	more, err := svc.Discover(context.Background(), Request{Query: "find skill for deployment", ShowMore: true}, sess)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(more.Results) != 1 {
		t.Fatalf("show-more must re-include the skill, got %d results", len(more.Results))
	}
}

func TestDiscover_EmptyQueryFallsBackToExploratory(t *testing.T) {
	reg := &fakeRegistry{records: []registry.SkillRecord{skill("popular-skill", "everyone uses this", 90000)}}
	svc := newService(t, reg)

	resp, err := svc.Discover(context.Background(), Request{Query: ""}, session.NewStore())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if resp.Classified {
		t.Fatal("empty query must not classify")
	}
	if resp.Strategy != dispatch.StrategyExploratory {
		t.Fatalf("expected exploratory fallback, got %s", resp.Strategy)
	}
	if resp.Results == nil {
		t.Fatal("results must never be nil")
	}
}

func TestDiscover_UnavailableUsesCachedListing(t *testing.T) {
	listing := []registry.SkillRecord{
		skill("cached-one", "formatting helper", 70000),
		skill("cached-two", "migration assistant", 60000),
	}
	reg := &fakeRegistry{records: listing}
	svc := newService(t, reg)

	// Warm the cache through a healthy exploratory call.
	if _, err := svc.Discover(context.Background(), Request{Query: "show me popular skills"}, session.NewStore()); err != nil {
		t.Fatalf("warmup: %v", err)
	}

	reg.down = true
	resp, err := svc.Discover(context.Background(), Request{Query: "show me popular skills"}, session.NewStore())
	if err != nil {
		t.Fatalf("Discover with warm cache: %v", err)
	}
	if !resp.Stale {
		t.Fatal("cached results must be marked stale")
	}
	if resp.CachedAt.IsZero() {
		t.Fatal("stale response must carry the cache timestamp")
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected cached results")
	}
}

func TestDiscover_UnavailableWithColdCacheFails(t *testing.T) {
	reg := &fakeRegistry{down: true}
	svc := newService(t, reg)

	_, err := svc.Discover(context.Background(), Request{Query: "find skill for testing"}, session.NewStore())
	if !errors.Is(err, registry.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDiscover_MetaSurfacesSelfReference(t *testing.T) {
	reg := &fakeRegistry{}
	svc := newService(t, reg)

	resp, err := svc.Discover(context.Background(), Request{Query: "how do I find skills?"}, session.NewStore())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if resp.Intent != intent.MetaDiscovery {
		t.Fatalf("unexpected intent %s", resp.Intent)
	}
	found := false
	for _, r := range resp.Results {
		if r.Record.ID == dispatch.SelfReference().ID {
			found = true
		}
	}
	if !found {
		t.Fatal("meta discovery must surface the discovery skill itself")
	}
}
