package process

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/yjuba/youki/pkg/channel"
	"github.com/yjuba/youki/pkg/rootless"
)

// ChildConfig parameterizes the child role, which is entered through the
// hidden boot command.
type ChildConfig struct {
	ID      string
	Root    string
	Bundle  string
	Spec    *specs.Spec
	Timeout time.Duration
}

// RunChild spawns the init process inside its namespaces and relays the
// handshake between main and init. It returns once the relay is done;
// the init process deliberately outlives it and is reparented.
func RunChild(cfg *ChildConfig) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// ends inherited from the main process
	up := channel.NewSender(os.NewFile(upFd, "main-up"), "main-up")
	down := channel.NewReceiver(os.NewFile(downFd, "main-down"), "main-down")
	defer up.Close()
	defer down.Close()

	// second channel pair, towards the init process
	initUpSend, initUpRecv, err := channel.Pair("init-up")
	if err != nil {
		return err
	}
	initDownSend, initDownRecv, err := channel.Pair("init-down")
	if err != nil {
		initUpSend.Close()
		initUpRecv.Close()
		return err
	}
	defer initUpRecv.Close()
	defer initDownSend.Close()

	initPid, err := startInit(cfg, initUpSend, initDownRecv)
	// init owns these ends now
	initUpSend.Close()
	initDownRecv.Close()
	if err != nil {
		return fmt.Errorf("spawn init: %w", err)
	}

	needsMapping := rootless.NeedsIDMapping(cfg.Spec)
	return relay(up, down, initUpRecv, initDownSend, initPid, needsMapping, timeout)
}

// relay performs the child's message sequence. ChildReady is sent first,
// so the main process always observes it before any mapping request.
func relay(up *channel.Sender, down *channel.Receiver,
	initUp *channel.Receiver, initDown *channel.Sender,
	initPid int, needsMapping bool, timeout time.Duration) error {

	if err := up.Send(channel.Message{Kind: channel.ChildReady, Pid: int32(initPid)}); err != nil {
		return fmt.Errorf("notify child ready: %w", err)
	}
	if !needsMapping {
		return nil
	}

	if _, err := initUp.Expect(channel.RequestIDMapping, timeout); err != nil {
		return fmt.Errorf("await mapping request from init: %w", err)
	}
	if err := up.Send(channel.Message{Kind: channel.RequestIDMapping}); err != nil {
		return fmt.Errorf("forward mapping request: %w", err)
	}
	if _, err := down.Expect(channel.MappingAck, timeout); err != nil {
		return fmt.Errorf("await mapping ack: %w", err)
	}
	if err := initDown.Send(channel.Message{Kind: channel.MappingAck}); err != nil {
		return fmt.Errorf("forward mapping ack: %w", err)
	}
	return nil
}

func startInit(cfg *ChildConfig, upSend *channel.Sender, downRecv *channel.Receiver) (int, error) {
	upFile, err := upSend.File()
	if err != nil {
		return 0, err
	}
	defer upFile.Close()
	downFile, err := downRecv.File()
	if err != nil {
		return 0, err
	}
	defer downFile.Close()

	cmd := exec.Command("/proc/self/exe", "init", "--root", cfg.Root, "--bundle", cfg.Bundle, cfg.ID)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{upFile, downFile}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: namespaceFlags(cfg.Spec),
		Setsid:     true,
	}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// no Wait: init outlives the child and is reparented on child exit
	cmd.Process.Release()
	return pid, nil
}
