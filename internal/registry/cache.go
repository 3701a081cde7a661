package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Cache persists the most recent popular-skills listing so exploratory
// browsing keeps working while the registry is down. Artifacts live in a
// single directory: cache_manifest.json plus a skills.jsonl, replaced
// atomically on refresh.
type Cache struct {
	dir string
}

// CacheManifest describes a stored listing and how to interpret it.
type CacheManifest struct {
	CacheVersion int    `json:"cache_version"`
	CreatedAt    string `json:"created_at"`
	Source       string `json:"source"`
	SkillsFile   string `json:"skills_file"`
	Count        int    `json:"count"`
}

// cacheEntry is one skill row in skills.jsonl.
type cacheEntry struct {
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Downloads   int64  `json:"downloads"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// NewCache returns a cache rooted at dir. The directory is created lazily on
// the first Store.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Store writes records as a fresh listing, replacing any previous one.
// Concurrent scout processes are serialized through a sibling lock file.
func (c *Cache) Store(records []SkillRecord, source string) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to cache")
	}

	parent := filepath.Dir(c.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("cannot create cache parent %s: %w", parent, err)
	}

	l := flock.New(c.dir + ".lock")
	locked, err := l.TryLock()
	if err != nil {
		return fmt.Errorf("cannot acquire cache lock: %w", err)
	}
	if !locked {
		// Another process is refreshing the same listing; its copy is as
		// good as ours.
		return nil
	}
	defer func() { _ = l.Unlock() }()

	tmpDir, err := os.MkdirTemp(parent, "popular-*")
	if err != nil {
		return fmt.Errorf("cannot create temp cache dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	manifest := CacheManifest{
		CacheVersion: 1,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Source:       source,
		SkillsFile:   "skills.jsonl",
		Count:        len(records),
	}
	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "cache_manifest.json"), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write cache manifest: %w", err)
	}

	sf, err := os.Create(filepath.Join(tmpDir, manifest.SkillsFile))
	if err != nil {
		return fmt.Errorf("cannot create cache skills file: %w", err)
	}
	w := bufio.NewWriter(sf)
	for _, r := range records {
		e := cacheEntry{
			Owner:       r.ID.Owner,
			Repo:        r.ID.Repo,
			Name:        r.ID.Name,
			DisplayName: r.DisplayName,
			Description: r.Description,
			Downloads:   r.Downloads,
		}
		if !r.UpdatedAt.IsZero() {
			e.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339)
		}
		b, err := json.Marshal(e)
		if err != nil {
			sf.Close()
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			sf.Close()
			return fmt.Errorf("cannot write cache skills file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		sf.Close()
		return fmt.Errorf("cannot flush cache skills file: %w", err)
	}
	if err := sf.Close(); err != nil {
		return fmt.Errorf("cannot close cache skills file: %w", err)
	}

	if err := swapDir(tmpDir, c.dir); err != nil {
		return fmt.Errorf("cannot install cache: %w", err)
	}
	return nil
}

// Load reads the stored listing. It returns the records and the time the
// listing was written, so callers can report staleness.
func (c *Cache) Load() ([]SkillRecord, time.Time, error) {
	manifestPath := filepath.Join(c.dir, "cache_manifest.json")
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("cannot read cache manifest %s: %w", manifestPath, err)
	}
	var m CacheManifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid cache manifest %s: %w", manifestPath, err)
	}
	if m.SkillsFile == "" {
		m.SkillsFile = "skills.jsonl"
	}

	path := filepath.Join(c.dir, m.SkillsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("cannot open cache skills file %s: %w", path, err)
	}
	defer f.Close()

	var out []SkillRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e cacheEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, time.Time{}, fmt.Errorf("invalid cache JSONL %s: %w", path, err)
		}
		rec := SkillRecord{
			ID:          Identifier{Owner: e.Owner, Repo: e.Repo, Name: e.Name},
			DisplayName: e.DisplayName,
			Description: e.Description,
			Downloads:   e.Downloads,
		}
		if e.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, e.UpdatedAt); err == nil {
				rec.UpdatedAt = t
			}
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("cannot read cache skills file %s: %w", path, err)
	}

	createdAt, _ := time.Parse(time.RFC3339, m.CreatedAt)
	return out, createdAt, nil
}
