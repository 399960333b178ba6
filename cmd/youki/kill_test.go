package main

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestParseSignal(t *testing.T) {
	cases := []struct {
		in   string
		want unix.Signal
	}{
		{"9", unix.SIGKILL},
		{"15", unix.SIGTERM},
		{"KILL", unix.SIGKILL},
		{"kill", unix.SIGKILL},
		{"SIGKILL", unix.SIGKILL},
		{"sigusr1", unix.SIGUSR1},
	}
	for _, tc := range cases {
		got, err := parseSignal(tc.in)
		if err != nil {
			t.Errorf("parseSignal(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseSignal(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{"0", "-1", "65", "NOSUCH", ""} {
		if _, err := parseSignal(in); err == nil {
			t.Errorf("parseSignal(%q) succeeded, want error", in)
		}
	}
}
