// Package artifact coordinates shared result files between concurrent
// linter processes. Each process writes uniquely named partial files
// without coordination; an aggregation pass merges partials into the
// final artifact under an advisory file lock. Aggregation is
// idempotent, so any process may run it at any time.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned when the artifact lock cannot be acquired
// within the configured timeout, including the one retry.
var ErrLockTimeout = errors.New("timed out waiting for artifact lock")

// State describes an artifact's lifecycle.
type State int

const (
	// StateAbsent means neither partials nor a final file exist.
	StateAbsent State = iota
	// StatePartial means unmerged partial files are present.
	StatePartial
	// StateMerged means a final file exists and no partials remain.
	StateMerged
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePartial:
		return "partial"
	case StateMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// Merger combines partial payloads with the existing final payload.
// existing is nil when no final artifact has been written yet. Merging
// must be idempotent: feeding the output back in with no new partials
// must reproduce it.
type Merger interface {
	Merge(existing []byte, partials [][]byte) ([]byte, error)
}

// Store manages the artifacts of one directory.
type Store struct {
	dir         string
	lockTimeout time.Duration
	retryDelay  time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long lock acquisition may block.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	s := &Store{
		dir:         dir,
		lockTimeout: 5 * time.Second,
		retryDelay:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) finalPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) lockPath(name string) string {
	return filepath.Join(s.dir, name+".lock")
}

// partialPath is unique per process and moment, so concurrent writers
// never collide and no lock is needed to write one.
func (s *Store) partialPath(name string) string {
	return filepath.Join(s.dir,
		fmt.Sprintf("%s_pid%d_%d.json", name, os.Getpid(), time.Now().UnixNano()))
}

func (s *Store) partialGlob(name string) string {
	return filepath.Join(s.dir, name+"_pid*.json")
}

// WritePartial serializes v into a new partial file for the artifact.
func (s *Store) WritePartial(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal partial %s: %w", name, err)
	}
	return WriteFileAtomic(s.partialPath(name), data, 0o644)
}

// partials lists unmerged partial files, oldest first. Orphaned temp
// files from interrupted writes are excluded.
func (s *Store) partials(name string) ([]string, error) {
	matches, err := filepath.Glob(s.partialGlob(name))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range matches {
		if isTempFile(filepath.Base(m)) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// withLock runs fn holding the artifact's advisory lock. Acquisition is
// bounded by the lock timeout and retried once before giving up.
func (s *Store) withLock(name string, fn func() error) error {
	lock := flock.New(s.lockPath(name))
	defer lock.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
		locked, err := lock.TryLockContext(ctx, s.retryDelay)
		cancel()
		if locked {
			return fn()
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("acquire lock %s: %w", s.lockPath(name), err)
		}
	}
	return fmt.Errorf("%w: %s", ErrLockTimeout, s.lockPath(name))
}

// Guard runs fn while holding the named artifact lock, without touching
// the artifact itself. It serializes mutations of shared files that
// live outside the store, like the whitelist.
func (s *Store) Guard(name string, fn func() error) error {
	return s.withLock(name, fn)
}

// Aggregate merges all pending partials into the final artifact and
// deletes them. It returns the final payload and whether this call did
// any merging. With no pending partials it is a no-op that returns the
// existing final payload.
func (s *Store) Aggregate(name string, merger Merger) ([]byte, bool, error) {
	var out []byte
	var merged bool
	err := s.withLock(name, func() error {
		pending, err := s.partials(name)
		if err != nil {
			return err
		}
		existing, err := os.ReadFile(s.finalPath(name))
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("read final %s: %w", name, err)
			}
			existing = nil
		}
		if len(pending) == 0 {
			out = existing
			return nil
		}
		payloads := make([][]byte, 0, len(pending))
		for _, p := range pending {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read partial %s: %w", p, err)
			}
			payloads = append(payloads, data)
		}
		result, err := merger.Merge(existing, payloads)
		if err != nil {
			return fmt.Errorf("merge %s: %w", name, err)
		}
		if err := WriteFileAtomic(s.finalPath(name), result, 0o644); err != nil {
			return err
		}
		// Partials are consumed only after the final write landed, so a
		// crash between the two at worst re-merges them.
		for _, p := range pending {
			os.Remove(p)
		}
		out = result
		merged = true
		return nil
	})
	return out, merged, err
}

// Read returns the final artifact payload, or nil when absent.
func (s *Store) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.finalPath(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// Update applies a read-modify-write to the final artifact under the
// lock, bypassing the partial mechanism. Used for small shared files
// like the whitelist cache.
func (s *Store) Update(name string, fn func(existing []byte) ([]byte, error)) error {
	return s.withLock(name, func() error {
		existing, err := os.ReadFile(s.finalPath(name))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read final %s: %w", name, err)
		}
		updated, err := fn(existing)
		if err != nil {
			return err
		}
		return WriteFileAtomic(s.finalPath(name), updated, 0o644)
	})
}

// Status reports the artifact's state and the pending partial count.
func (s *Store) Status(name string) (State, int, error) {
	pending, err := s.partials(name)
	if err != nil {
		return StateAbsent, 0, err
	}
	if len(pending) > 0 {
		return StatePartial, len(pending), nil
	}
	if _, err := os.Stat(s.finalPath(name)); err != nil {
		if os.IsNotExist(err) {
			return StateAbsent, 0, nil
		}
		return StateAbsent, 0, err
	}
	return StateMerged, 0, nil
}

// CleanStale removes partial and temp files older than maxAge, which
// only accumulate when a process crashed before aggregation ran.
func (s *Store) CleanStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if !isTempFile(name) && !strings.Contains(name, "_pid") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(s.dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}
