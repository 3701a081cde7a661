package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kamusis/scout-cli/internal/config"
	"github.com/kamusis/scout-cli/internal/discovery"
	"github.com/kamusis/scout-cli/internal/dispatch"
	"github.com/kamusis/scout-cli/internal/rank"
	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/kamusis/scout-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	flagDiscoverDepth   int
	flagDiscoverK       int
	flagDiscoverFormat  string
	flagDiscoverSession string
	flagDiscoverMore    bool
	flagDiscoverProfile string
	flagDiscoverDebug   bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Classify a query and return ranked skill suggestions",
	Args:  cobra.MinimumNArgs(0),
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&flagDiscoverDepth, "depth", -1, "Presentation depth 0-3 (default from config)")
	discoverCmd.Flags().IntVar(&flagDiscoverK, "k", 0, "Number of results to show (default from config)")
	discoverCmd.Flags().StringVar(&flagDiscoverFormat, "format", "text", "Output format: text or json")
	discoverCmd.Flags().StringVar(&flagDiscoverSession, "session", "", "Session ID for cross-invocation deduplication")
	discoverCmd.Flags().BoolVar(&flagDiscoverMore, "more", false, "Show more: allow skills already surfaced in this session")
	discoverCmd.Flags().StringVar(&flagDiscoverProfile, "profile", "", "Ranking weight profile (default from config)")
	discoverCmd.Flags().BoolVar(&flagDiscoverDebug, "debug", false, "Print debug information")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'scout init' first.", err)
	}

	if len(args) == 0 {
		return cmd.Help()
	}
	query := strings.Join(args, " ")

	depth := flagDiscoverDepth
	if depth < 0 {
		depth = cfg.DefaultDepth
	}
	if depth > 3 {
		depth = 3
	}
	if flagDiscoverFormat != "text" && flagDiscoverFormat != "json" {
		return fmt.Errorf("unknown format %q (expected text or json)", flagDiscoverFormat)
	}

	svc, cache, err := buildService(cfg, flagDiscoverProfile)
	if err != nil {
		return err
	}
	svc.Cache = cache

	// Session: named sessions persist across invocations; without --session
	// the store lives only for this one call.
	sess := session.NewStore()
	sessionPath := ""
	if flagDiscoverSession != "" {
		sessionsDir, err := config.SessionsDir()
		if err != nil {
			return err
		}
		sessionPath = session.FilePath(sessionsDir, flagDiscoverSession)
		sess, err = session.Load(sessionPath)
		if err != nil {
			return err
		}
		if flagDiscoverDebug {
			printInfo("", fmt.Sprintf("session %s: %d skills already surfaced", flagDiscoverSession, sess.Len()))
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	resp, err := svc.Discover(ctx, discovery.Request{
		Query:    query,
		ShowMore: flagDiscoverMore,
		TopK:     flagDiscoverK,
	}, sess)
	if err != nil {
		if errors.Is(err, registry.ErrUnavailable) {
			printErr("", "skill search is temporarily unavailable (registry unreachable, no cached listing)")
		}
		return err
	}

	if sessionPath != "" {
		if err := session.Append(sessionPath, resp.Surfaced); err != nil {
			return err
		}
	}

	if flagDiscoverFormat == "json" {
		return printDiscoverJSON(query, resp)
	}
	printDiscoverText(query, resp, depth)
	return nil
}

// buildService assembles the pipeline from config: registry client, lookup
// tables and the resolved weight profile.
func buildService(cfg *config.Config, profileFlag string) (*discovery.Service, *registry.Cache, error) {
	baseURL, err := cfg.EffectiveRegistryURL()
	if err != nil {
		return nil, nil, err
	}
	token, err := config.GetConfigValue("SCOUT_REGISTRY_TOKEN")
	if err != nil {
		return nil, nil, err
	}
	client := registry.NewHTTP(registry.HTTPConfig{
		BaseURL: baseURL,
		Token:   token,
		Timeout: cfg.Timeout(),
	})

	synonyms := dispatch.DefaultSynonyms()
	if cfg.SynonymsPath != "" {
		synonyms, err = dispatch.LoadSynonyms(cfg.SynonymsPath)
		if err != nil {
			return nil, nil, err
		}
	}
	roles := dispatch.DefaultRoles()
	if cfg.RolesPath != "" {
		roles, err = dispatch.LoadRoles(cfg.RolesPath)
		if err != nil {
			return nil, nil, err
		}
	}

	profiles := rank.Profiles{}
	for name, p := range cfg.Profiles {
		profiles[name] = rank.Weights{
			Relevance:  p.Relevance,
			Popularity: p.Popularity,
			Recency:    p.Recency,
			Redundancy: p.Redundancy,
		}
	}
	profileName := profileFlag
	if profileName == "" {
		profileName = cfg.Profile
	}
	weights, err := profiles.Resolve(profileName)
	if err != nil {
		return nil, nil, err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		return nil, nil, err
	}

	svc := &discovery.Service{
		Dispatcher: &dispatch.Dispatcher{
			Registry: client,
			Synonyms: synonyms,
			Roles:    roles,
			Limit:    cfg.ResultLimit,
		},
		Weights: weights,
		TopK:    cfg.TopK,
	}
	return svc, registry.NewCache(cacheDir), nil
}

func printDiscoverText(query string, resp *discovery.Response, depth int) {
	fmt.Printf("\nscout discover %q\n\n", query)

	if resp.Stale {
		age := "unknown age"
		if !resp.CachedAt.IsZero() {
			age = fmt.Sprintf("cached %s", resp.CachedAt.Format("2006-01-02 15:04"))
		}
		printWarn("", fmt.Sprintf("registry unreachable — showing the last popular listing (%s)", age))
	}

	fmt.Printf("Results (%d found):\n", len(resp.Results))
	if len(resp.Results) == 0 {
		printMiss("", "no matching skills — try a broader query")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range resp.Results {
		fmt.Fprintf(w, "  %d.\t[%.3f]\t%s\n", i+1, r.Score, r.Record.ID)
		if depth >= 1 {
			desc := strings.TrimSpace(r.Record.Description)
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Fprintf(w, "  \t\t%s\n", desc)
			fmt.Fprintf(w, "  \t\tinstall: scout install %s\n", r.Record.ID.Handle())
		}
		if depth >= 2 {
			fmt.Fprintf(w, "  \t\te.g. scout discover %q --session work\n", exampleQuery(r.Record))
			fmt.Fprintf(w, "  \t\tdownloads: %d\n", r.Record.Downloads)
		}
		if depth >= 3 {
			fmt.Fprintf(w, "  \t\tscores: relevance=%.3f popularity=%.3f recency=%.3f redundancy=%.3f\n",
				r.Relevance, r.Popularity, r.Recency, r.Redundancy)
		}
	}
	_ = w.Flush()

	if resp.Pipeline != nil && len(resp.Pipeline.Stages) > 0 {
		fmt.Printf("\nSuggested pipeline:\n")
		for _, st := range resp.Pipeline.Stages {
			names := make([]string, 0, len(st.Records))
			for _, rec := range st.Records {
				names = append(names, rec.ID.Name)
			}
			fmt.Printf("  %-9s %s\n", st.Role+":", strings.Join(names, ", "))
		}
	}

	if depth >= 3 {
		fmt.Println()
		if resp.Classified {
			printInfo("", fmt.Sprintf("intent: %s (confidence %.2f), strategy: %s", resp.Intent, resp.Confidence, resp.Strategy))
		} else {
			printInfo("", fmt.Sprintf("intent: unclassified, fell back to strategy: %s", resp.Strategy))
		}
		if resp.SentQuery != "" && resp.SentQuery != query {
			printInfo("", fmt.Sprintf("registry query: %q", resp.SentQuery))
		}
	}
}

// exampleQuery builds a plausible follow-up query for depth-2 rendering.
func exampleQuery(rec registry.SkillRecord) string {
	words := strings.Fields(rec.Description)
	if len(words) > 5 {
		words = words[:5]
	}
	if len(words) == 0 {
		return rec.DisplayName
	}
	return strings.ToLower(strings.Join(words, " "))
}

// discoverJSON is the machine-readable shape of one discovery response.
type discoverJSON struct {
	Query      string           `json:"query"`
	Intent     string           `json:"intent"`
	Classified bool             `json:"classified"`
	Confidence float64          `json:"confidence"`
	Strategy   string           `json:"strategy"`
	SentQuery  string           `json:"sent_query,omitempty"`
	Stale      bool             `json:"stale,omitempty"`
	CachedAt   string           `json:"cached_at,omitempty"`
	Results    []discoverResult `json:"results"`
	Pipeline   []discoverStage  `json:"pipeline,omitempty"`
}

type discoverResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Downloads   int64   `json:"downloads"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
	Relevance   float64 `json:"relevance"`
	Popularity  float64 `json:"popularity"`
	Recency     float64 `json:"recency"`
	Redundancy  float64 `json:"redundancy"`
	Score       float64 `json:"score"`
}

type discoverStage struct {
	Role   string   `json:"role"`
	Skills []string `json:"skills"`
}

func printDiscoverJSON(query string, resp *discovery.Response) error {
	out := discoverJSON{
		Query:      query,
		Intent:     resp.Intent.String(),
		Classified: resp.Classified,
		Confidence: resp.Confidence,
		Strategy:   string(resp.Strategy),
		SentQuery:  resp.SentQuery,
		Stale:      resp.Stale,
		Results:    make([]discoverResult, 0, len(resp.Results)),
	}
	if !resp.CachedAt.IsZero() {
		out.CachedAt = resp.CachedAt.UTC().Format(time.RFC3339)
	}
	for _, r := range resp.Results {
		dr := discoverResult{
			ID:          r.Record.ID.String(),
			Name:        r.Record.DisplayName,
			Description: r.Record.Description,
			Downloads:   r.Record.Downloads,
			Relevance:   r.Relevance,
			Popularity:  r.Popularity,
			Recency:     r.Recency,
			Redundancy:  r.Redundancy,
			Score:       r.Score,
		}
		if !r.Record.UpdatedAt.IsZero() {
			dr.UpdatedAt = r.Record.UpdatedAt.UTC().Format(time.RFC3339)
		}
		out.Results = append(out.Results, dr)
	}
	if resp.Pipeline != nil {
		for _, st := range resp.Pipeline.Stages {
			ds := discoverStage{Role: st.Role}
			for _, rec := range st.Records {
				ds.Skills = append(ds.Skills, rec.ID.String())
			}
			out.Pipeline = append(out.Pipeline, ds)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
