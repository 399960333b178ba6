package process

import (
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"
)

// Channel ends are handed to spawned processes through ExtraFiles, so
// they always land at fixed descriptors after stdio.
const (
	upFd   = 3 // write end towards the parent process
	downFd = 4 // read end from the parent process
)

// DefaultTimeout bounds every blocking receive of the handshake so a
// peer killed without closing its ends cannot hang the bootstrap.
const DefaultTimeout = 10 * time.Second

var cloneFlags = map[specs.LinuxNamespaceType]uintptr{
	specs.PIDNamespace:     unix.CLONE_NEWPID,
	specs.NetworkNamespace: unix.CLONE_NEWNET,
	specs.MountNamespace:   unix.CLONE_NEWNS,
	specs.IPCNamespace:     unix.CLONE_NEWIPC,
	specs.UTSNamespace:     unix.CLONE_NEWUTS,
	specs.UserNamespace:    unix.CLONE_NEWUSER,
	specs.CgroupNamespace:  unix.CLONE_NEWCGROUP,
}

// namespaceFlags computes the clone flags for the init process. A
// namespace with a path refers to an existing one and is joined by the
// init process itself, not created at clone time.
func namespaceFlags(spec *specs.Spec) uintptr {
	if spec == nil || spec.Linux == nil {
		return 0
	}
	var flags uintptr
	for _, ns := range spec.Linux.Namespaces {
		if ns.Path != "" {
			continue
		}
		flags |= cloneFlags[ns.Type]
	}
	return flags
}

// hasNamespace reports whether the configuration creates the given
// namespace type.
func hasNamespace(spec *specs.Spec, t specs.LinuxNamespaceType) bool {
	if spec == nil || spec.Linux == nil {
		return false
	}
	for _, ns := range spec.Linux.Namespaces {
		if ns.Type == t && ns.Path == "" {
			return true
		}
	}
	return false
}
