package container

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"golang.org/x/sys/unix"
)

// namespaces joined for an auxiliary process, in entry order. The user
// namespace must come first so the others are joined with in-namespace
// privileges; mount comes last since it invalidates proc paths.
var joinOrder = []string{"user", "ipc", "uts", "net", "pid", "mnt"}

// Exec runs an auxiliary process inside the container by joining the
// init process's namespaces on a locked thread and spawning the command
// there. It returns the process exit code.
func (c *Container) Exec(args []string) (int, error) {
	if c.state.Status != Running {
		return 0, fmt.Errorf("%w: cannot exec in container in state %s", ErrInvalidState, c.state.Status)
	}
	if len(args) == 0 {
		return 0, fmt.Errorf("exec %s: no command", c.state.ID)
	}

	// the joined namespaces only apply to this thread and to children
	// spawned from it; the thread is dirty afterwards and never unlocked
	runtime.LockOSThread()

	nsDir := "/proc/" + strconv.Itoa(c.state.Pid) + "/ns/"
	for _, ns := range joinOrder {
		fd, err := unix.Open(nsDir+ns, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("exec %s: open %s namespace: %w", c.state.ID, ns, err)
		}
		err = unix.Setns(fd, 0)
		unix.Close(fd)
		if err != nil {
			return 0, fmt.Errorf("exec %s: join %s namespace: %w", c.state.ID, ns, err)
		}
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("exec %s: %w", c.state.ID, err)
	}
	return 0, nil
}
