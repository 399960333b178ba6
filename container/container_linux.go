package container

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/yjuba/youki/pkg/cgroup"
	"github.com/yjuba/youki/process"
)

// Container is one loaded container record plus the handles needed to
// operate on its process and cgroup.
type Container struct {
	store *Store
	state *State
}

// Load reads the record for id and refreshes its status against the
// actual init process before returning.
func Load(root, id string) (*Container, error) {
	store := NewStore(root)
	c := &Container{store: store}
	err := store.WithLock(id, func() error {
		st, err := store.loadLocked(id)
		if err != nil {
			return err
		}
		c.state = st
		return c.refreshLocked()
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the container identifier.
func (c *Container) ID() string { return c.state.ID }

// State returns the current record.
func (c *Container) State() *State { return c.state }

// refreshLocked reconciles the persisted status with reality: if the
// init process is gone while the record still claims a live state, the
// container has stopped. Caller holds the record lock.
func (c *Container) refreshLocked() error {
	switch c.state.Status {
	case Created, Running, Paused:
		if !alive(c.state.Pid) {
			c.state.Status = Stopped
			return c.store.saveLocked(c.state)
		}
	}
	return nil
}

// reload re-reads the record and refreshes it, so a mutating operation
// never acts on a state observed before it took the lock. Caller holds
// the record lock.
func (c *Container) reload() error {
	st, err := c.store.loadLocked(c.state.ID)
	if err != nil {
		return err
	}
	c.state = st
	return c.refreshLocked()
}

// Start opens the exec fifo, releasing the init process to exec the
// payload, and marks the container running. The whole sequence holds
// the record lock so no other command can interleave.
func (c *Container) Start() error {
	return c.store.WithLock(c.state.ID, func() error {
		if err := c.reload(); err != nil {
			return err
		}
		if err := checkTransition(c.state.Status, Running); err != nil {
			return err
		}
		if !alive(c.state.Pid) {
			return fmt.Errorf("%w: init process %d died before start", ErrInvalidState, c.state.Pid)
		}
		fifo := filepath.Join(c.store.Dir(c.state.ID), process.ExecFifo)
		f, err := os.OpenFile(fifo, os.O_RDONLY, 0)
		if err != nil {
			return fmt.Errorf("start %s: open exec fifo: %w", c.state.ID, err)
		}
		defer f.Close()
		buf := make([]byte, 1)
		if _, err := f.Read(buf); err != nil {
			return fmt.Errorf("start %s: read exec fifo: %w", c.state.ID, err)
		}
		// the gate fired once, it has no further use
		os.Remove(fifo)

		c.state.Status = Running
		return c.store.saveLocked(c.state)
	})
}

// Kill delivers a signal to the init process, or to every process in
// the container's cgroup when all is set.
func (c *Container) Kill(sig unix.Signal, all bool) error {
	return c.store.WithLock(c.state.ID, func() error {
		if err := c.reload(); err != nil {
			return err
		}
		return c.killLocked(sig, all)
	})
}

func (c *Container) killLocked(sig unix.Signal, all bool) error {
	switch c.state.Status {
	case Created, Running, Paused:
	default:
		return fmt.Errorf("%w: cannot kill container in state %s", ErrInvalidState, c.state.Status)
	}
	if all {
		pids, err := c.Processes()
		if err != nil {
			return err
		}
		for _, pid := range pids {
			if err := unix.Kill(pid, sig); err != nil && err != unix.ESRCH {
				return fmt.Errorf("kill %s: pid %d: %w", c.state.ID, pid, err)
			}
		}
		return nil
	}
	if err := unix.Kill(c.state.Pid, sig); err != nil {
		return fmt.Errorf("kill %s: pid %d: %w", c.state.ID, c.state.Pid, err)
	}
	return nil
}

// Pause freezes every process in the container.
func (c *Container) Pause() error {
	return c.store.WithLock(c.state.ID, func() error {
		if err := c.reload(); err != nil {
			return err
		}
		if err := checkTransition(c.state.Status, Paused); err != nil {
			return err
		}
		cg, err := c.openCgroup()
		if err != nil {
			return err
		}
		if err := cg.Freeze(); err != nil {
			return err
		}
		c.state.Status = Paused
		return c.store.saveLocked(c.state)
	})
}

// Resume thaws a paused container.
func (c *Container) Resume() error {
	return c.store.WithLock(c.state.ID, func() error {
		if err := c.reload(); err != nil {
			return err
		}
		if c.state.Status != Paused {
			return fmt.Errorf("%w: cannot resume container in state %s", ErrInvalidState, c.state.Status)
		}
		cg, err := c.openCgroup()
		if err != nil {
			return err
		}
		if err := cg.Thaw(); err != nil {
			return err
		}
		c.state.Status = Running
		return c.store.saveLocked(c.state)
	})
}

// Delete removes a stopped container's record and cgroup. With force,
// a live container is killed first.
func (c *Container) Delete(force bool) error {
	return c.store.WithLock(c.state.ID, func() error {
		if err := c.reload(); err != nil {
			return err
		}
		if c.state.Status != Stopped {
			if !force {
				return fmt.Errorf("%w: cannot delete container in state %s (use force)",
					ErrInvalidState, c.state.Status)
			}
			if err := c.killLocked(unix.SIGKILL, true); err != nil {
				return err
			}
		}
		if cg, err := c.openCgroup(); err == nil {
			cg.Destroy()
		}
		return c.store.removeLocked(c.state.ID)
	})
}

// Processes lists pids inside the container. Without a cgroup (rootless
// invocations skip cgroup setup) only the init pid is reported.
func (c *Container) Processes() ([]int, error) {
	cg, err := c.openCgroup()
	if err != nil {
		if alive(c.state.Pid) {
			return []int{c.state.Pid}, nil
		}
		return nil, nil
	}
	return cg.Processes()
}

// Stats reads a resource usage snapshot from the container's cgroup.
func (c *Container) Stats() (*cgroup.Stat, error) {
	cg, err := c.openCgroup()
	if err != nil {
		return nil, err
	}
	return cg.Stat()
}

func (c *Container) openCgroup() (cgroup.Cgroup, error) {
	return cgroup.New(cgroupPath(c.state.ID))
}

func cgroupPath(id string) string {
	return filepath.Join("youki", id)
}

// alive probes for process existence; EPERM still means the pid exists.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
