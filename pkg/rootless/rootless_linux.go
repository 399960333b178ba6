// Package rootless detects whether the runtime is operating without full
// privilege and therefore needs a user namespace remapped configuration
// and the unprivileged state root.
package rootless

import (
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"
)

// Rootless reports whether the current invocation runs unprivileged.
func Rootless() bool {
	return unix.Geteuid() != 0
}

// NeedsIDMapping reports whether the configuration asks for a new user
// namespace, i.e. whether the init process will request its id mapping
// during bootstrap. When this is false the request message is simply
// never sent.
func NeedsIDMapping(spec *specs.Spec) bool {
	if spec == nil || spec.Linux == nil {
		return false
	}
	for _, ns := range spec.Linux.Namespaces {
		if ns.Type == specs.UserNamespace {
			return true
		}
	}
	return false
}
