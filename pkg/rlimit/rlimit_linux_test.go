package rlimit

import (
	"syscall"
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

func TestFromSpec(t *testing.T) {
	tests := []struct {
		name   string
		limits []specs.POSIXRlimit
		expect []int
		err    bool
	}{
		{
			name:   "Empty",
			limits: nil,
			expect: []int{},
		},
		{
			name: "NoFile",
			limits: []specs.POSIXRlimit{
				{Type: "RLIMIT_NOFILE", Soft: 1024, Hard: 4096},
			},
			expect: []int{syscall.RLIMIT_NOFILE},
		},
		{
			name: "Multiple",
			limits: []specs.POSIXRlimit{
				{Type: "RLIMIT_CPU", Soft: 1, Hard: 2},
				{Type: "RLIMIT_STACK", Soft: 4096, Hard: 4096},
				{Type: "RLIMIT_CORE", Soft: 0, Hard: 0},
			},
			expect: []int{syscall.RLIMIT_CPU, syscall.RLIMIT_STACK, syscall.RLIMIT_CORE},
		},
		{
			name: "Unknown",
			limits: []specs.POSIXRlimit{
				{Type: "RLIMIT_BOGUS", Soft: 1, Hard: 1},
			},
			err: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromSpec(tc.limits)
			if tc.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tc.expect) {
				t.Fatalf("got %d limits, want %d", len(got), len(tc.expect))
			}
			for i, r := range got {
				if r.Res != tc.expect[i] {
					t.Errorf("limit %d: res %d, want %d", i, r.Res, tc.expect[i])
				}
			}
		})
	}
}

func TestRLimitValues(t *testing.T) {
	got, err := FromSpec([]specs.POSIXRlimit{
		{Type: "RLIMIT_FSIZE", Soft: 100, Hard: 200},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Rlim.Cur != 100 || got[0].Rlim.Max != 200 {
		t.Errorf("rlim = %+v, want {100 200}", got[0].Rlim)
	}
	if s := got[0].String(); s != "FSIZE[100:200]" {
		t.Errorf("String() = %q", s)
	}
}
