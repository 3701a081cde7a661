package dispatch

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kamusis/scout-cli/internal/textsim"
	"gopkg.in/yaml.v3"
)

// SynonymTable expands task-description tokens into related search terms
// before a task-based query reaches the registry. The table is a versioned
// lookup, overridable from a user YAML file, so vocabulary changes never
// require a code change.
type SynonymTable struct {
	Version  int               `yaml:"version"`
	Synonyms map[string]string `yaml:"synonyms"`
}

// DefaultSynonyms returns the built-in expansion table.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		Version: 1,
		Synonyms: map[string]string{
			"debug":     "debugging troubleshooting error-handling diagnosis",
			"debugging": "troubleshooting error-handling diagnosis",
			"frontend":  "ui interface client-side web-design",
			"backend":   "server api service database",
			"test":      "testing qa assertions coverage",
			"testing":   "qa assertions coverage",
			"deploy":    "deployment release ci-cd infrastructure",
			"document":  "documentation readme docs writing",
			"refactor":  "refactoring cleanup restructuring",
			"review":    "code-review audit feedback",
			"data":      "etl pipeline analytics csv",
			"security":  "audit vulnerability scanning hardening",
		},
	}
}

// LoadSynonyms reads a synonym table from a YAML file.
func LoadSynonyms(path string) (SynonymTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SynonymTable{}, fmt.Errorf("cannot read synonym table %s: %w", path, err)
	}
	var t SynonymTable
	if err := yaml.Unmarshal(b, &t); err != nil {
		return SynonymTable{}, fmt.Errorf("invalid synonym table %s: %w", path, err)
	}
	if len(t.Synonyms) == 0 {
		return SynonymTable{}, fmt.Errorf("synonym table %s has no entries", path)
	}
	return t, nil
}

// Expand returns query augmented with the synonyms of every matched token.
// Original tokens are kept; appended terms are deduplicated and ordered
// deterministically.
func (t SynonymTable) Expand(query string) string {
	tokens := textsim.Tokenize(query)
	if len(tokens) == 0 {
		return query
	}

	present := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		present[tok] = struct{}{}
	}

	var extra []string
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		exp, ok := t.Synonyms[tok]
		if !ok {
			continue
		}
		for _, term := range strings.Fields(exp) {
			if _, dup := present[term]; dup {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			extra = append(extra, term)
		}
	}
	if len(extra) == 0 {
		return query
	}
	sort.Strings(extra)
	return query + " " + strings.Join(extra, " ")
}
