// Package registry defines the skill registry data model and the HTTP client
// used to query the external skill catalog.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Identifier is the stable owner/repo/name triple of a registry skill.
type Identifier struct {
	Owner string
	Repo  string
	Name  string
}

// String renders the identifier in canonical owner/repo/name form.
func (id Identifier) String() string {
	return id.Owner + "/" + id.Repo + "/" + id.Name
}

// Handle renders the identifier in the installable @owner/repo/name form.
func (id Identifier) Handle() string {
	return "@" + id.String()
}

var identSegment = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ParseIdentifier validates and parses an identifier of the form
// @owner/repo/name (the leading @ is optional). Malformed input returns an
// error wrapping ErrInvalidIdentifier.
func ParseIdentifier(s string) (Identifier, error) {
	raw := strings.TrimSpace(s)
	trimmed := strings.TrimPrefix(raw, "@")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return Identifier{}, fmt.Errorf("%w: %q (expected @owner/repo/name)", ErrInvalidIdentifier, raw)
	}
	for _, p := range parts {
		if !identSegment.MatchString(p) {
			return Identifier{}, fmt.Errorf("%w: %q (segment %q)", ErrInvalidIdentifier, raw, p)
		}
	}
	return Identifier{Owner: parts[0], Repo: parts[1], Name: parts[2]}, nil
}

// SkillRecord is one candidate skill as reported by the registry. The record
// is owned by the registry; scout treats it as read-only input.
type SkillRecord struct {
	ID          Identifier
	DisplayName string
	Description string
	Downloads   int64
	UpdatedAt   time.Time
}

// Sort selects the registry-side ordering for search results.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortDownloads Sort = "downloads"
	SortRecency   Sort = "recency"
)

// Client is the read-only interface to the external skill registry.
// Implementations must be stateless and safe to share across sessions, and
// must report outages as errors wrapping ErrUnavailable so callers can tell
// "registry down" apart from "no matches".
type Client interface {
	Search(ctx context.Context, query string, sort Sort, limit int) ([]SkillRecord, error)
	Browse(ctx context.Context, category string, limit int) ([]SkillRecord, error)
}

// DedupeByID removes records repeating an identifier already seen earlier in
// the slice, preserving order.
func DedupeByID(records []SkillRecord) []SkillRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		key := r.ID.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
