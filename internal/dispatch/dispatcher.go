// Package dispatch selects and executes the retrieval strategy for a
// classified discovery intent against the skill registry.
package dispatch

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/kamusis/scout-cli/internal/intent"
	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/kamusis/scout-cli/internal/textsim"
)

// Strategy names the retrieval approach a dispatch used; it is reported back
// so deep presentation modes can explain where results came from.
type Strategy string

const (
	StrategyDirect      Strategy = "direct"
	StrategyTask        Strategy = "task-expansion"
	StrategyExploratory Strategy = "exploratory"
	StrategyMeta        Strategy = "meta-discovery"
	StrategySynthesis   Strategy = "synthesis"
)

// DefaultLimit caps how many candidates a strategy requests from the
// registry.
const DefaultLimit = 20

// metaSearchQuery is the fixed query the meta-discovery strategy unions in.
const metaSearchQuery = "skill discovery finding skills"

// Dispatcher runs one retrieval strategy per request. The registry client is
// stateless and shared; the dispatcher itself holds only configuration.
type Dispatcher struct {
	Registry registry.Client
	Synonyms SynonymTable
	Roles    RoleTable
	Limit    int

	// RetryDelay is the base backoff before the single retry. Tests shrink
	// it; zero means 500ms.
	RetryDelay time.Duration
}

// Result is a dispatch outcome: a deduplicated candidate list, plus the
// staged pipeline when the synthesis strategy ran.
type Result struct {
	Strategy      Strategy
	Query         string // the query actually sent to the registry
	Records       []registry.SkillRecord
	Pipeline      *Pipeline
	SelfReference *registry.SkillRecord
}

// SelfReference is the static record for scout's own discovery skill. The
// meta-discovery strategy injects it directly instead of recursing through
// the pipeline.
func SelfReference() registry.SkillRecord {
	return registry.SkillRecord{
		ID:          registry.Identifier{Owner: "kamusis", Repo: "scout-cli", Name: "skill-discovery"},
		DisplayName: "skill-discovery",
		Description: "Find, rank and combine installable skills: keyword and task-based search, popularity browsing and multi-skill pipeline synthesis.",
		Downloads:   4200,
	}
}

// complementaryMetaSkills is the small fixed list of meta-skills unioned into
// every meta-discovery result.
func complementaryMetaSkills() []registry.SkillRecord {
	return []registry.SkillRecord{
		{
			ID:          registry.Identifier{Owner: "kamusis", Repo: "scout-cli", Name: "skill-authoring"},
			DisplayName: "skill-authoring",
			Description: "Write and package new skills so others can discover and install them.",
			Downloads:   1800,
		},
		{
			ID:          registry.Identifier{Owner: "kamusis", Repo: "scout-cli", Name: "skill-evaluation"},
			DisplayName: "skill-evaluation",
			Description: "Evaluate whether an installed skill is still useful: usage, freshness and overlap checks.",
			Downloads:   950,
		},
	}
}

// Dispatch executes the strategy for st. classified=false means no intent
// cleared its threshold; the dispatcher then behaves as Exploratory.
//
// Every strategy returns a non-nil, ID-deduplicated slice. Registry outages
// surface as errors wrapping registry.ErrUnavailable after one retry with
// exponential backoff; the caller decides whether a cached listing can stand
// in.
func (d *Dispatcher) Dispatch(ctx context.Context, st intent.State, classified bool, query string) (*Result, error) {
	if !classified {
		st = intent.Exploratory
	}
	limit := d.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	switch st {
	case intent.DirectQuery:
		records, err := d.searchWithRetry(ctx, query, registry.SortRelevance, limit)
		if err != nil {
			return nil, err
		}
		return &Result{Strategy: StrategyDirect, Query: query, Records: registry.DedupeByID(records)}, nil

	case intent.TaskBased:
		expanded := d.Synonyms.Expand(query)
		records, err := d.searchWithRetry(ctx, expanded, registry.SortRelevance, limit)
		if err != nil {
			return nil, err
		}
		return &Result{Strategy: StrategyTask, Query: expanded, Records: registry.DedupeByID(records)}, nil

	case intent.Exploratory:
		category := detectCategory(query)
		records, err := d.browseWithRetry(ctx, category, limit)
		if err != nil {
			return nil, err
		}
		return &Result{Strategy: StrategyExploratory, Query: category, Records: registry.DedupeByID(records)}, nil

	case intent.MetaDiscovery:
		self := SelfReference()
		records := []registry.SkillRecord{self}
		found, err := d.searchWithRetry(ctx, metaSearchQuery, registry.SortRelevance, limit)
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
		records = append(records, complementaryMetaSkills()...)
		return &Result{
			Strategy:      StrategyMeta,
			Query:         metaSearchQuery,
			Records:       registry.DedupeByID(records),
			SelfReference: &self,
		}, nil

	case intent.SkillSynthesis:
		expanded := d.Synonyms.Expand(query)
		records, err := d.searchWithRetry(ctx, expanded, registry.SortRelevance, limit)
		if err != nil {
			return nil, err
		}
		records = registry.DedupeByID(records)
		return &Result{
			Strategy: StrategySynthesis,
			Query:    expanded,
			Records:  records,
			Pipeline: d.Roles.BuildPipeline(records),
		}, nil
	}

	// Unreachable with the closed State set; treat like fallback browsing.
	records, err := d.browseWithRetry(ctx, "", limit)
	if err != nil {
		return nil, err
	}
	return &Result{Strategy: StrategyExploratory, Records: registry.DedupeByID(records)}, nil
}

func (d *Dispatcher) searchWithRetry(ctx context.Context, query string, sort registry.Sort, limit int) ([]registry.SkillRecord, error) {
	var out []registry.SkillRecord
	err := d.retry(ctx, func() error {
		var err error
		out, err = d.Registry.Search(ctx, query, sort, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []registry.SkillRecord{}
	}
	return out, nil
}

func (d *Dispatcher) browseWithRetry(ctx context.Context, category string, limit int) ([]registry.SkillRecord, error) {
	var out []registry.SkillRecord
	err := d.retry(ctx, func() error {
		var err error
		out, err = d.Registry.Browse(ctx, category, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []registry.SkillRecord{}
	}
	return out, nil
}

// retry runs op, retrying exactly once with exponential backoff when the
// registry reports an outage. Other errors fail immediately.
func (d *Dispatcher) retry(ctx context.Context, op func() error) error {
	delay := d.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, registry.ErrUnavailable) }),
		retry.LastErrorOnly(true),
	)
}

// knownCategories are the browse filters the registry understands. An
// exploratory query mentioning one narrows the listing to that category.
var knownCategories = []string{
	"testing", "debugging", "frontend", "backend", "devops",
	"data", "security", "documentation", "productivity",
}

func detectCategory(query string) string {
	for _, tok := range textsim.Tokenize(query) {
		for _, c := range knownCategories {
			if tok == c {
				return c
			}
		}
	}
	return ""
}
