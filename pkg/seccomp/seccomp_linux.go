// Package seccomp translates the container configuration's seccomp
// section into a BPF filter and installs it on the calling process.
package seccomp

import (
	"fmt"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Load builds and installs the filter. A nil config is a no-op. The
// filter is installed with no_new_privs and synced to all threads.
func Load(sc *specs.LinuxSeccomp) error {
	if sc == nil {
		return nil
	}
	policy, err := ToPolicy(sc)
	if err != nil {
		return err
	}
	filter := libseccomp.Filter{
		NoNewPrivs: true,
		Flag:       libseccomp.FilterFlagTSync,
		Policy:     *policy,
	}
	if err := libseccomp.LoadFilter(filter); err != nil {
		return fmt.Errorf("seccomp: load filter: %w", err)
	}
	return nil
}

// ToPolicy converts the configured actions and syscall groups.
func ToPolicy(sc *specs.LinuxSeccomp) (*libseccomp.Policy, error) {
	def, err := toAction(sc.DefaultAction)
	if err != nil {
		return nil, fmt.Errorf("seccomp: default action: %w", err)
	}
	policy := libseccomp.Policy{DefaultAction: def}
	for _, call := range sc.Syscalls {
		act, err := toAction(call.Action)
		if err != nil {
			return nil, fmt.Errorf("seccomp: syscalls %v: %w", call.Names, err)
		}
		policy.Syscalls = append(policy.Syscalls, libseccomp.SyscallGroup{
			Names:  call.Names,
			Action: act,
		})
	}
	return &policy, nil
}

func toAction(a specs.LinuxSeccompAction) (libseccomp.Action, error) {
	switch a {
	case specs.ActAllow:
		return libseccomp.ActionAllow, nil
	case specs.ActErrno:
		return libseccomp.ActionErrno, nil
	case specs.ActTrap:
		return libseccomp.ActionTrap, nil
	case specs.ActTrace:
		return libseccomp.ActionTrace, nil
	case specs.ActLog:
		return libseccomp.ActionLog, nil
	case specs.ActKill, specs.ActKillThread:
		return libseccomp.ActionKillThread, nil
	case specs.ActKillProcess:
		return libseccomp.ActionKillProcess, nil
	}
	return 0, fmt.Errorf("unsupported action %q", a)
}
