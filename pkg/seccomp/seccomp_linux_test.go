package seccomp

import (
	"testing"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

func TestToPolicy(t *testing.T) {
	sc := &specs.LinuxSeccomp{
		DefaultAction: specs.ActAllow,
		Syscalls: []specs.LinuxSyscall{
			{Names: []string{"mount", "umount2"}, Action: specs.ActErrno},
			{Names: []string{"ptrace"}, Action: specs.ActKillProcess},
		},
	}
	policy, err := ToPolicy(sc)
	if err != nil {
		t.Fatal(err)
	}
	if policy.DefaultAction != libseccomp.ActionAllow {
		t.Errorf("default action = %v", policy.DefaultAction)
	}
	if len(policy.Syscalls) != 2 {
		t.Fatalf("got %d groups, want 2", len(policy.Syscalls))
	}
	if policy.Syscalls[0].Action != libseccomp.ActionErrno {
		t.Errorf("group 0 action = %v", policy.Syscalls[0].Action)
	}
	if policy.Syscalls[1].Action != libseccomp.ActionKillProcess {
		t.Errorf("group 1 action = %v", policy.Syscalls[1].Action)
	}
}

func TestToPolicyUnsupported(t *testing.T) {
	sc := &specs.LinuxSeccomp{
		DefaultAction: specs.LinuxSeccompAction("SCMP_ACT_NOTIFY"),
	}
	if _, err := ToPolicy(sc); err == nil {
		t.Fatal("expected error for notify action")
	}
}

func TestLoadNil(t *testing.T) {
	if err := Load(nil); err != nil {
		t.Fatalf("Load(nil) = %v", err)
	}
}
