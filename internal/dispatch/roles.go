package dispatch

import (
	"fmt"
	"os"

	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/kamusis/scout-cli/internal/textsim"
	"gopkg.in/yaml.v3"
)

// StageOrder is the fixed architectural-role ordering of a synthesized
// pipeline.
var StageOrder = []string{"discover", "decide", "design", "build", "verify", "deliver"}

// RoleTable maps architectural roles to the keywords that place a skill in
// that role. Like the synonym table it is versioned and overridable from
// YAML.
type RoleTable struct {
	Version int                 `yaml:"version"`
	Roles   map[string][]string `yaml:"roles"`
}

// DefaultRoles returns the built-in role keyword table.
func DefaultRoles() RoleTable {
	return RoleTable{
		Version: 1,
		Roles: map[string][]string{
			"discover": {"search", "research", "explore", "crawl", "fetch", "scrape"},
			"decide":   {"evaluate", "compare", "rank", "triage", "prioritize", "select"},
			"design":   {"design", "architecture", "plan", "spec", "model", "diagram"},
			"build":    {"build", "generate", "implement", "scaffold", "code", "write"},
			"verify":   {"test", "testing", "lint", "review", "validate", "audit", "check"},
			"deliver":  {"deploy", "release", "publish", "package", "ship", "ci"},
		},
	}
}

// LoadRoles reads a role table from a YAML file.
func LoadRoles(path string) (RoleTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RoleTable{}, fmt.Errorf("cannot read role table %s: %w", path, err)
	}
	var t RoleTable
	if err := yaml.Unmarshal(b, &t); err != nil {
		return RoleTable{}, fmt.Errorf("invalid role table %s: %w", path, err)
	}
	if len(t.Roles) == 0 {
		return RoleTable{}, fmt.Errorf("role table %s has no entries", path)
	}
	return t, nil
}

// Stage is one role slot of a synthesized pipeline.
type Stage struct {
	Role    string
	Records []registry.SkillRecord
}

// Pipeline is the staged structure a SkillSynthesis query produces instead
// of a flat list.
type Pipeline struct {
	Stages []Stage
}

// assign returns the role for rec: the first role in stage order whose
// keyword appears in the record's name or description. Records matching no
// role land in "build", the neutral implementation stage.
func (t RoleTable) assign(rec registry.SkillRecord) string {
	tokens := make(map[string]struct{})
	for _, tok := range textsim.Tokenize(rec.DisplayName + " " + rec.Description + " " + rec.ID.Name) {
		tokens[tok] = struct{}{}
	}
	for _, role := range StageOrder {
		for _, kw := range t.Roles[role] {
			if _, ok := tokens[kw]; ok {
				return role
			}
		}
	}
	return "build"
}

// BuildPipeline groups records into stages in the fixed stage order. Roles
// with no matching skill are omitted.
func (t RoleTable) BuildPipeline(records []registry.SkillRecord) *Pipeline {
	byRole := make(map[string][]registry.SkillRecord)
	for _, r := range records {
		role := t.assign(r)
		byRole[role] = append(byRole[role], r)
	}

	p := &Pipeline{}
	for _, role := range StageOrder {
		if recs, ok := byRole[role]; ok {
			p.Stages = append(p.Stages, Stage{Role: role, Records: recs})
		}
	}
	return p
}
