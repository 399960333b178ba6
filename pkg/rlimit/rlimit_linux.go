// Package rlimit applies POSIX resource limits from the container
// configuration to the init process before exec.
package rlimit

import (
	"fmt"
	"strings"
	"syscall"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"
)

// RLimit is one resource limit as consumed by the setrlimit syscall.
type RLimit struct {
	// Res is the resource type (e.g. unix.RLIMIT_CPU)
	Res int
	// Rlim is the limit applied to that resource
	Rlim syscall.Rlimit
}

var resources = map[string]int{
	"RLIMIT_AS":         unix.RLIMIT_AS,
	"RLIMIT_CORE":       unix.RLIMIT_CORE,
	"RLIMIT_CPU":        unix.RLIMIT_CPU,
	"RLIMIT_DATA":       unix.RLIMIT_DATA,
	"RLIMIT_FSIZE":      unix.RLIMIT_FSIZE,
	"RLIMIT_LOCKS":      unix.RLIMIT_LOCKS,
	"RLIMIT_MEMLOCK":    unix.RLIMIT_MEMLOCK,
	"RLIMIT_MSGQUEUE":   unix.RLIMIT_MSGQUEUE,
	"RLIMIT_NICE":       unix.RLIMIT_NICE,
	"RLIMIT_NOFILE":     unix.RLIMIT_NOFILE,
	"RLIMIT_NPROC":      unix.RLIMIT_NPROC,
	"RLIMIT_RSS":        unix.RLIMIT_RSS,
	"RLIMIT_RTPRIO":     unix.RLIMIT_RTPRIO,
	"RLIMIT_RTTIME":     unix.RLIMIT_RTTIME,
	"RLIMIT_SIGPENDING": unix.RLIMIT_SIGPENDING,
	"RLIMIT_STACK":      unix.RLIMIT_STACK,
}

// FromSpec converts configured limits into applicable RLimit values.
// Unknown resource names are rejected rather than silently skipped.
func FromSpec(limits []specs.POSIXRlimit) ([]RLimit, error) {
	ret := make([]RLimit, 0, len(limits))
	for _, l := range limits {
		res, ok := resources[l.Type]
		if !ok {
			return nil, fmt.Errorf("rlimit: unknown resource %q", l.Type)
		}
		ret = append(ret, RLimit{
			Res:  res,
			Rlim: syscall.Rlimit{Cur: l.Soft, Max: l.Hard},
		})
	}
	return ret, nil
}

// Apply installs the limit on the calling process.
func (r RLimit) Apply() error {
	if err := syscall.Setrlimit(r.Res, &r.Rlim); err != nil {
		return fmt.Errorf("rlimit: setrlimit %s: %w", r.String(), err)
	}
	return nil
}

func (r RLimit) String() string {
	name := fmt.Sprintf("res(%d)", r.Res)
	for n, res := range resources {
		if res == r.Res {
			name = strings.TrimPrefix(n, "RLIMIT_")
			break
		}
	}
	return fmt.Sprintf("%s[%d:%d]", name, r.Rlim.Cur, r.Rlim.Max)
}
