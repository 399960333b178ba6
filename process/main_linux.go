package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"

	"github.com/yjuba/youki/pkg/channel"
	"github.com/yjuba/youki/pkg/idmap"
	"github.com/yjuba/youki/pkg/rootless"
)

// BootstrapConfig parameterizes the main process's side of a container
// bootstrap.
type BootstrapConfig struct {
	// ID is the container identifier
	ID string

	// Root is the resolved runtime root directory
	Root string

	// Bundle is the bundle directory holding config.json and the rootfs
	Bundle string

	// Spec is the loaded container configuration
	Spec *specs.Spec

	// Timeout bounds each blocking receive (default: DefaultTimeout)
	Timeout time.Duration

	// Stderr collects diagnostics from the child and init processes
	Stderr io.Writer

	// ExecFile overrides the re-executed binary (default /proc/self/exe)
	ExecFile string
}

// Bootstrap drives the handshake from the main process: it spawns the
// child, waits for the init pid, writes the id mapping when requested
// and acknowledges it. On success the init process is alive, waiting on
// its start gate, and its pid is returned. On any failure the spawned
// tree is reaped and a *BootstrapError is returned.
func Bootstrap(cfg *BootstrapConfig) (int, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	upSend, upRecv, err := channel.Pair("main-up")
	if err != nil {
		return 0, &BootstrapError{Stage: "channel setup", Err: err}
	}
	downSend, downRecv, err := channel.Pair("main-down")
	if err != nil {
		upSend.Close()
		upRecv.Close()
		return 0, &BootstrapError{Stage: "channel setup", Err: err}
	}
	defer upRecv.Close()
	defer downSend.Close()

	cmd, err := startChild(cfg, upSend, downRecv)
	// the child owns these ends now regardless of the start outcome
	upSend.Close()
	downRecv.Close()
	if err != nil {
		return 0, &BootstrapError{Stage: "spawn child", Err: err}
	}

	needsMapping := rootless.NeedsIDMapping(cfg.Spec)
	writeMapping := func(pid int) error {
		var uid, gid []specs.LinuxIDMapping
		if cfg.Spec.Linux != nil {
			uid = cfg.Spec.Linux.UIDMappings
			gid = cfg.Spec.Linux.GIDMappings
		}
		return idmap.Write(pid, uid, gid)
	}

	initPid, err := awaitChild(upRecv, downSend, needsMapping, writeMapping, timeout)
	if err != nil {
		reap(cmd, initPid)
		return 0, err
	}

	// the child exits once the relay is done; a nonzero exit after a
	// seemingly complete handshake still voids the bootstrap
	if err := cmd.Wait(); err != nil {
		reap(nil, initPid)
		return 0, &BootstrapError{Stage: "child exit", Err: err}
	}
	return initPid, nil
}

// awaitChild runs the ordered receive sequence of the main process.
// MappingAck is only sent after writeMapping has returned, so the init
// process can never act on a mapping that is not yet durable.
func awaitChild(up *channel.Receiver, down *channel.Sender, needsMapping bool,
	writeMapping func(pid int) error, timeout time.Duration) (int, error) {

	ready, err := up.Expect(channel.ChildReady, timeout)
	if err != nil {
		return 0, &BootstrapError{Stage: "await child ready", Err: err}
	}
	initPid := int(ready.Pid)
	if initPid <= 0 {
		return 0, &BootstrapError{Stage: "await child ready",
			Err: fmt.Errorf("invalid init pid %d", initPid)}
	}

	if needsMapping {
		if _, err := up.Expect(channel.RequestIDMapping, timeout); err != nil {
			return initPid, &BootstrapError{Stage: "await mapping request", Err: err}
		}
		if err := writeMapping(initPid); err != nil {
			return initPid, &BootstrapError{Stage: "write id mapping", Err: err}
		}
		if err := down.Send(channel.Message{Kind: channel.MappingAck}); err != nil {
			return initPid, &BootstrapError{Stage: "send mapping ack", Err: err}
		}
	}
	return initPid, nil
}

func startChild(cfg *BootstrapConfig, upSend *channel.Sender, downRecv *channel.Receiver) (*exec.Cmd, error) {
	upFile, err := upSend.File()
	if err != nil {
		return nil, err
	}
	defer upFile.Close()
	downFile, err := downRecv.File()
	if err != nil {
		return nil, err
	}
	defer downFile.Close()

	exe := cfg.ExecFile
	if exe == "" {
		exe = "/proc/self/exe"
	}
	cmd := exec.Command(exe, "boot", "--root", cfg.Root, "--bundle", cfg.Bundle, cfg.ID)
	cmd.Stderr = cfg.Stderr
	cmd.ExtraFiles = []*os.File{upFile, downFile}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// reap tears down a partially created process tree. The child is killed
// and waited to avoid a zombie; the init process is orphaned by design
// (the child exits first), so it is signalled directly.
func reap(child *exec.Cmd, initPid int) {
	if child != nil && child.Process != nil {
		child.Process.Kill()
		child.Wait()
	}
	ReapInit(initPid)
}

// ReapInit kills an init process that survived a failed creation, e.g.
// when post-handshake setup could not complete.
func ReapInit(initPid int) {
	if initPid > 0 {
		unix.Kill(initPid, unix.SIGKILL)
	}
}
