package container

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"

	"github.com/yjuba/youki/pkg/cgroup"
	"github.com/yjuba/youki/pkg/rootless"
	"github.com/yjuba/youki/process"
)

// CreateOpts parameterizes container creation.
type CreateOpts struct {
	// ID is the new container identifier, unique under the root
	ID string

	// Bundle is the bundle directory (default: current directory)
	Bundle string

	// Root is the resolved runtime root
	Root string

	// UseSystemdCgroup records the requested cgroup driver
	UseSystemdCgroup bool

	// Stderr collects bootstrap diagnostics (default: discarded)
	Stderr io.Writer

	// ExecFile overrides the re-executed binary (default /proc/self/exe)
	ExecFile string
}

// Create runs the bootstrap handshake and, only when it fully
// succeeds, commits the container record as created. On any failure
// nothing is persisted and the spawned process tree is reaped.
func Create(opts *CreateOpts) (*Container, error) {
	spec, err := LoadSpec(opts.Bundle)
	if err != nil {
		return nil, err
	}

	store := NewStore(opts.Root)
	dir := store.Dir(opts.ID)
	// the mkdir is the atomic claim on the id: a concurrent create with
	// the same id loses here and must not touch the winner's directory
	if err := os.Mkdir(dir, 0o700); err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrExists, opts.ID)
		}
		return nil, fmt.Errorf("create %s: %w", opts.ID, err)
	}
	// the record directory exists but holds no committed state yet; a
	// failed bootstrap removes it again
	cleanup := func() { os.RemoveAll(dir) }

	if err := unix.Mkfifo(store.fifoPath(opts.ID), 0o600); err != nil {
		cleanup()
		return nil, fmt.Errorf("create %s: exec fifo: %w", opts.ID, err)
	}

	initPid, err := process.Bootstrap(&process.BootstrapConfig{
		ID:       opts.ID,
		Root:     opts.Root,
		Bundle:   opts.Bundle,
		Spec:     spec,
		Stderr:   opts.Stderr,
		ExecFile: opts.ExecFile,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	if err := setupCgroup(opts.ID, initPid); err != nil {
		process.ReapInit(initPid)
		cleanup()
		return nil, err
	}

	st := &State{
		Version:          specs.Version,
		ID:               opts.ID,
		Status:           Created,
		Pid:              initPid,
		Bundle:           opts.Bundle,
		Annotations:      spec.Annotations,
		Created:          time.Now().UTC(),
		UseSystemdCgroup: opts.UseSystemdCgroup,
	}
	if err := store.Save(st); err != nil {
		process.ReapInit(initPid)
		cleanup()
		return nil, err
	}
	return &Container{store: store, state: st}, nil
}

// setupCgroup places the init process into a fresh cgroup. Rootless
// invocations have no write access to the hierarchy and skip this;
// pause, resume and events then report their own errors.
func setupCgroup(id string, initPid int) error {
	if rootless.Rootless() {
		return nil
	}
	cg, err := cgroup.New(cgroupPath(id))
	if err != nil {
		return err
	}
	if err := cg.AddProc(initPid); err != nil {
		cg.Destroy()
		return err
	}
	return nil
}

func (s *Store) fifoPath(id string) string {
	return filepath.Join(s.Dir(id), process.ExecFifo)
}
