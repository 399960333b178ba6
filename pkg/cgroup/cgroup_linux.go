// Package cgroup controls the container's cgroup for freezing, resource
// accounting and process enumeration, supporting both the v1 and the
// unified v2 hierarchy.
package cgroup

import "fmt"

const basePath = "/sys/fs/cgroup"

// Cgroup is the common control interface over v1 and v2 hierarchies.
type Cgroup interface {
	// AddProc moves processes into the cgroup
	AddProc(pid ...int) error

	// Processes lists pids currently in the cgroup
	Processes() ([]int, error)

	// Freeze suspends all processes in the cgroup
	Freeze() error

	// Thaw resumes a frozen cgroup
	Thaw() error

	// Stat reads current resource usage
	Stat() (*Stat, error)

	// Destroy removes the cgroup directories; processes must be gone
	Destroy() error
}

// Stat is a point-in-time usage snapshot.
type Stat struct {
	CPUUsage uint64 `json:"cpu_usage_nsec"`
	Memory   uint64 `json:"memory_bytes"`
	Pids     uint64 `json:"pids_current"`
}

// DetectedType is the cgroup hierarchy mounted on this system.
var DetectedType = detectType()

// New creates (or opens, if it already exists) the cgroup at the given
// path relative to the hierarchy root, e.g. "youki/<container-id>".
func New(path string) (Cgroup, error) {
	switch DetectedType {
	case TypeV1:
		return newV1(path)
	case TypeV2:
		return newV2(path)
	}
	return nil, fmt.Errorf("cgroup: no cgroup hierarchy mounted at %s", basePath)
}
