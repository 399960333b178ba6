package container

import (
	"fmt"
	"os"
)

// DefaultRoot is the privileged runtime root.
const DefaultRoot = "/run/youki"

// RootlessRoot is the fallback when running unprivileged and the caller
// did not override the root. A variable so tests can redirect it.
var RootlessRoot = "/tmp/rootless"

// ResolveRoot picks the runtime root for this invocation and ensures
// the directory exists. An explicit override is always honored; only
// the untouched default is redirected for rootless invocations.
func ResolveRoot(requested string, isRootless bool) (string, error) {
	root := requested
	if root == "" {
		root = DefaultRoot
	}
	if root == DefaultRoot && isRootless {
		root = RootlessRoot
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return "", fmt.Errorf("root %s: %w", root, err)
	}
	return root, nil
}
