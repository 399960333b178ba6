package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yjuba/youki/container"
	"github.com/yjuba/youki/process"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("boom"), exitError},
		{container.ErrInvalidState, exitInvalidState},
		{fmt.Errorf("delete: %w", container.ErrInvalidState), exitInvalidState},
		{container.ErrNotFound, exitNotFound},
		{fmt.Errorf("load: %w", container.ErrNotFound), exitNotFound},
		{&process.BootstrapError{Stage: "spawn child", Err: errors.New("enoent")}, exitBootstrapFailed},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPrettyName(t *testing.T) {
	content := []byte("NAME=\"Debian GNU/Linux\"\nPRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\nID=debian\n")
	if got := prettyName(content); got != "Debian GNU/Linux 12 (bookworm)" {
		t.Errorf("prettyName = %q", got)
	}
	if got := prettyName([]byte("ID=debian\n")); got != "unknown" {
		t.Errorf("prettyName without PRETTY_NAME = %q, want unknown", got)
	}
}

func TestDefaultSpecRootless(t *testing.T) {
	spec := defaultSpec(true)
	var hasUser bool
	for _, ns := range spec.Linux.Namespaces {
		if ns.Type == "user" {
			hasUser = true
		}
	}
	if !hasUser {
		t.Error("rootless spec lacks a user namespace")
	}
	if len(spec.Linux.UIDMappings) == 0 || len(spec.Linux.GIDMappings) == 0 {
		t.Error("rootless spec lacks id mappings")
	}

	spec = defaultSpec(false)
	for _, ns := range spec.Linux.Namespaces {
		if ns.Type == "user" {
			t.Error("privileged spec carries a user namespace")
		}
	}
	if len(spec.Process.Args) == 0 {
		t.Error("default spec has no process args")
	}
}
