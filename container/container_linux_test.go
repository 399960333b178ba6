package container

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"golang.org/x/sys/unix"
)

// saveState commits a record directly, bypassing the bootstrap, so the
// lifecycle operations can be exercised without spawning namespaces.
func saveState(t *testing.T, root string, st *State) {
	t.Helper()
	s := NewStore(root)
	if err := os.MkdirAll(s.Dir(st.ID), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(st); err != nil {
		t.Fatal(err)
	}
}

// deadPid returns a pid that is guaranteed not to exist anymore.
func deadPid(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("/bin/true")
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	return cmd.Process.Pid
}

func TestLoadNotFound(t *testing.T) {
	if _, err := Load(t.TempDir(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load = %v, want ErrNotFound", err)
	}
}

func TestLoadRefreshesDeadInit(t *testing.T) {
	root := t.TempDir()
	st := newTestState("a")
	st.Status = Running
	st.Pid = deadPid(t)
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if c.State().Status != Stopped {
		t.Errorf("status = %s, want %s", c.State().Status, Stopped)
	}

	// the refresh was persisted
	got, err := NewStore(root).Load("a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != Stopped {
		t.Errorf("persisted status = %s, want %s", got.Status, Stopped)
	}
}

func TestLoadKeepsLiveInit(t *testing.T) {
	root := t.TempDir()
	st := newTestState("a")
	st.Status = Running
	st.Pid = os.Getpid()
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if c.State().Status != Running {
		t.Errorf("status = %s, want %s", c.State().Status, Running)
	}
}

func TestDeleteRunningWithoutForce(t *testing.T) {
	root := t.TempDir()
	st := newTestState("a")
	st.Status = Running
	st.Pid = os.Getpid()
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(false); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Delete = %v, want ErrInvalidState", err)
	}

	// the record is unchanged
	got, err := NewStore(root).Load("a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != Running {
		t.Errorf("status after failed delete = %s, want %s", got.Status, Running)
	}
}

func TestDeleteStopped(t *testing.T) {
	root := t.TempDir()
	st := newTestState("a")
	st.Status = Stopped
	st.Pid = deadPid(t)
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(false); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete = %v, want ErrNotFound", err)
	}
}

func TestKillStopped(t *testing.T) {
	root := t.TempDir()
	st := newTestState("a")
	st.Status = Stopped
	st.Pid = deadPid(t)
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Kill(unix.SIGKILL, false); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Kill = %v, want ErrInvalidState", err)
	}
}

func TestKillDelivers(t *testing.T) {
	root := t.TempDir()

	cmd := exec.Command("/bin/sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}

	st := newTestState("a")
	st.Status = Running
	st.Pid = cmd.Process.Pid
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Kill(unix.SIGKILL, false); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Wait(); err == nil {
		t.Error("sleep exited cleanly, expected SIGKILL")
	}

	// once the init process is reaped the next load observes stopped
	c, err = Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if c.State().Status != Stopped {
		t.Errorf("status = %s, want %s", c.State().Status, Stopped)
	}
}

func TestStartRequiresCreated(t *testing.T) {
	root := t.TempDir()
	st := newTestState("a")
	st.Status = Running
	st.Pid = os.Getpid()
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Start = %v, want ErrInvalidState", err)
	}
}

func TestExecRequiresRunning(t *testing.T) {
	root := t.TempDir()
	st := newTestState("a")
	st.Status = Stopped
	st.Pid = deadPid(t)
	saveState(t, root, st)

	c, err := Load(root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Exec([]string{"/bin/true"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Exec = %v, want ErrInvalidState", err)
	}
}
