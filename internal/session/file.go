package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Sessions persist as append-only JSONL files named <session-id>.jsonl so a
// session spans multiple scout invocations. Appends are serialized through a
// sibling lock file; scout otherwise expects one outstanding request per
// session.

// FilePath returns the session file path for id under dir.
func FilePath(dir, id string) string {
	return filepath.Join(dir, id+".jsonl")
}

// Load reads a session file into a Store. A missing file yields an empty
// store, so a fresh session id needs no setup.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(), nil
		}
		return nil, fmt.Errorf("cannot open session file %s: %w", path, err)
	}
	defer f.Close()

	s := NewStore()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("invalid session JSONL %s: %w", path, err)
		}
		if _, ok := s.index[e.ID]; ok {
			continue
		}
		e.Ord = len(s.order)
		s.index[e.ID] = len(s.order)
		s.order = append(s.order, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read session file %s: %w", path, err)
	}
	return s, nil
}

// Append writes newly surfaced entries to the session file.
func Append(path string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create sessions dir: %w", err)
	}

	l := flock.New(path + ".lock")
	if err := l.Lock(); err != nil {
		return fmt.Errorf("cannot acquire session lock: %w", err)
	}
	defer func() { _ = l.Unlock() }()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open session file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("cannot write session file %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("cannot flush session file %s: %w", path, err)
	}
	return nil
}

// List returns the session ids persisted under dir, with per-session entry
// counts. A missing dir yields an empty listing.
func List(dir string) (map[string]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("cannot read sessions dir %s: %w", dir, err)
	}

	out := make(map[string]int)
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		id := strings.TrimSuffix(name, ".jsonl")
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out[id] = s.Len()
	}
	return out, nil
}

// Remove deletes a session file and its lock. Used at explicit session
// termination.
func Remove(dir, id string) error {
	path := FilePath(dir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove session file %s: %w", path, err)
	}
	_ = os.Remove(path + ".lock")
	return nil
}
