package container

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"
)

const (
	stateFile = "state.json"
	lockFile  = "lock"
)

// State is the persisted record of one container.
type State struct {
	Version          string            `json:"ociVersion"`
	ID               string            `json:"id"`
	Status           Status            `json:"status"`
	Pid              int               `json:"pid"`
	Bundle           string            `json:"bundle"`
	Annotations      map[string]string `json:"annotations,omitempty"`
	Created          time.Time         `json:"created"`
	UseSystemdCgroup bool              `json:"useSystemdCgroup"`
}

// OCI renders the record in the standardized state format.
func (s *State) OCI() specs.State {
	return specs.State{
		Version:     s.Version,
		ID:          s.ID,
		Status:      specs.ContainerState(s.Status),
		Pid:         s.Pid,
		Bundle:      s.Bundle,
		Annotations: s.Annotations,
	}
}

// Store reads and writes container records under one runtime root.
type Store struct {
	root string
}

// NewStore returns a store rooted at the resolved runtime root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir is the record directory of a container id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// lock takes the per-record exclusive lock, creating the lock file if
// needed. The returned release must be called on every path.
func (s *Store) lock(id string) (func(), error) {
	fd, err := unix.Open(filepath.Join(s.Dir(id), lockFile),
		unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0600)
	if err != nil {
		// no record directory, the container is gone or never existed
		if err == unix.ENOENT {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("state: open lock for %s: %w", id, err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("state: lock %s: %w", id, err)
	}
	return func() {
		unix.Flock(fd, unix.LOCK_UN)
		unix.Close(fd)
	}, nil
}

// WithLock runs fn while holding the record's exclusive lock. Lifecycle
// operations use it to make their whole check-then-mutate sequence
// atomic with respect to other commands on the same id. The lock is not
// reentrant: fn must use the unlocked accessors.
func (s *Store) WithLock(id string, fn func() error) error {
	release, err := s.lock(id)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Save writes the record atomically under the record lock.
func (s *Store) Save(st *State) error {
	return s.WithLock(st.ID, func() error { return s.saveLocked(st) })
}

// saveLocked marshals to a temp file in the record directory, then
// renames over the state file. Caller holds the record lock.
func (s *Store) saveLocked(st *State) error {
	dir := s.Dir(st.ID)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal %s: %w", st.ID, err)
	}
	tmp, err := os.CreateTemp(dir, "."+stateFile)
	if err != nil {
		return fmt.Errorf("state: temp file for %s: %w", st.ID, err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("state: write %s: %v/%v", st.ID, werr, cerr)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, stateFile)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("state: commit %s: %w", st.ID, err)
	}
	return nil
}

// Load reads the record for id under the record lock.
func (s *Store) Load(id string) (*State, error) {
	var st *State
	if _, err := os.Stat(filepath.Join(s.Dir(id), stateFile)); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	err := s.WithLock(id, func() error {
		var lerr error
		st, lerr = s.loadLocked(id)
		return lerr
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// loadLocked reads the record. Caller holds the record lock.
func (s *Store) loadLocked(id string) (*State, error) {
	path := filepath.Join(s.Dir(id), stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("state: read %s: %w", id, err)
	}
	st := new(State)
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", id, err)
	}
	return st, nil
}

// Remove deletes the whole record directory under the record lock.
func (s *Store) Remove(id string) error {
	return s.WithLock(id, func() error { return s.removeLocked(id) })
}

func (s *Store) removeLocked(id string) error {
	if err := os.RemoveAll(s.Dir(id)); err != nil {
		return fmt.Errorf("state: remove %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a committed record exists for id.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(filepath.Join(s.Dir(id), stateFile))
	return err == nil
}

// List loads every committed record under the root. Directories without
// a state file (an in-flight create or leftover debris) are skipped.
func (s *Store) List() ([]*State, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("state: list %s: %w", s.root, err)
	}
	var states []*State
	for _, e := range entries {
		if !e.IsDir() || !s.Exists(e.Name()) {
			continue
		}
		st, err := s.Load(e.Name())
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}
