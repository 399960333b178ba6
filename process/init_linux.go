package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"

	"github.com/yjuba/youki/pkg/channel"
	"github.com/yjuba/youki/pkg/mount"
	"github.com/yjuba/youki/pkg/rlimit"
	"github.com/yjuba/youki/pkg/rootless"
	"github.com/yjuba/youki/pkg/seccomp"
)

// ExecFifo is the start gate inside the container's state directory.
// The init process blocks opening it for write until the start command
// opens it for read.
const ExecFifo = "exec.fifo"

// InitConfig parameterizes the init role, entered through the hidden
// init command inside the freshly created namespaces.
type InitConfig struct {
	ID      string
	Root    string
	Bundle  string
	Spec    *specs.Spec
	Timeout time.Duration
}

// RunInit completes the init side of the handshake, prepares the
// container environment, waits on the start gate and replaces itself
// with the payload. It only returns on error; on success exec is the
// terminal action.
func RunInit(cfg *InitConfig) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	spec := cfg.Spec
	if spec == nil || spec.Process == nil || len(spec.Process.Args) == 0 {
		return fmt.Errorf("init: no process to run")
	}

	up := channel.NewSender(os.NewFile(upFd, "init-up"), "init-up")
	down := channel.NewReceiver(os.NewFile(downFd, "init-down"), "init-down")

	if rootless.NeedsIDMapping(spec) {
		if err := up.Send(channel.Message{Kind: channel.RequestIDMapping}); err != nil {
			return fmt.Errorf("init: request id mapping: %w", err)
		}
		if _, err := down.Expect(channel.MappingAck, timeout); err != nil {
			return fmt.Errorf("init: await mapping ack: %w", err)
		}
		// the mapping exists now; become root inside the namespace
		if err := unix.Setresgid(0, 0, 0); err != nil {
			return fmt.Errorf("init: setresgid: %w", err)
		}
		if err := unix.Setresuid(0, 0, 0); err != nil {
			return fmt.Errorf("init: setresuid: %w", err)
		}
	}
	// handshake is over for this process; release the endpoints
	up.Close()
	down.Close()

	// the fifo path vanishes at chroot, keep a handle to reopen via proc
	fifoFd, err := unix.Open(filepath.Join(cfg.Root, cfg.ID, ExecFifo),
		unix.O_PATH|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("init: open exec fifo: %w", err)
	}

	if err := setupContainer(cfg.Bundle, spec); err != nil {
		return err
	}

	limits, err := rlimit.FromSpec(spec.Process.Rlimits)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	for _, l := range limits {
		if err := l.Apply(); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	if err := awaitStart(fifoFd); err != nil {
		return err
	}

	// last step before the payload takes over
	if spec.Linux != nil {
		if err := seccomp.Load(spec.Linux.Seccomp); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	return execPayload(spec.Process)
}

func setupContainer(bundle string, spec *specs.Spec) error {
	if hasNamespace(spec, specs.UTSNamespace) && spec.Hostname != "" {
		if err := unix.Sethostname([]byte(spec.Hostname)); err != nil {
			return fmt.Errorf("init: sethostname: %w", err)
		}
	}

	if !hasNamespace(spec, specs.MountNamespace) {
		return nil
	}

	rootfs := spec.Root.Path
	if !filepath.IsAbs(rootfs) {
		rootfs = filepath.Join(bundle, rootfs)
	}

	// stop mount events from leaking back to the host
	if err := syscall.Mount("", "/", "", syscall.MS_REC|syscall.MS_PRIVATE, ""); err != nil {
		return fmt.Errorf("init: make rootfs private: %w", err)
	}
	for _, m := range spec.Mounts {
		if err := mount.FromSpec(m).MountTo(rootfs); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	if err := unix.Chroot(rootfs); err != nil {
		return fmt.Errorf("init: chroot %s: %w", rootfs, err)
	}
	cwd := "/"
	if spec.Process.Cwd != "" {
		cwd = spec.Process.Cwd
	}
	if err := unix.Chdir(cwd); err != nil {
		return fmt.Errorf("init: chdir %s: %w", cwd, err)
	}
	return nil
}

// awaitStart blocks on the exec fifo until a start command opens the
// read side. Reopening through proc works after chroot as long as the
// container mounts proc, which the standard configuration does.
func awaitStart(fifoFd int) error {
	fd, err := unix.Open("/proc/self/fd/"+strconv.Itoa(fifoFd),
		unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("init: open start gate: %w", err)
	}
	if _, err := unix.Write(fd, []byte("0")); err != nil {
		unix.Close(fd)
		return fmt.Errorf("init: signal start gate: %w", err)
	}
	unix.Close(fd)
	unix.Close(fifoFd)
	return nil
}

func execPayload(p *specs.Process) error {
	env := p.Env
	for _, kv := range env {
		if name, value, ok := strings.Cut(kv, "="); ok {
			os.Setenv(name, value)
		}
	}
	name, err := exec.LookPath(p.Args[0])
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := syscall.Exec(name, p.Args, env); err != nil {
		return fmt.Errorf("init: exec %s: %w", name, err)
	}
	return nil
}
