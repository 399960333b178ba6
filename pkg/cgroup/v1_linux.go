package cgroup

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"
)

// v1 controllers used by the runtime. The freezer controller is always
// required since pause and resume depend on it.
var v1Controllers = []string{"cpuacct", "memory", "pids", "freezer"}

type v1 struct {
	paths map[string]string
}

func newV1(p string) (Cgroup, error) {
	cg := &v1{paths: make(map[string]string, len(v1Controllers))}
	var created []string
	for _, c := range v1Controllers {
		dir := path.Join(basePath, c, p)
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			for _, d := range created {
				remove(d)
			}
			return nil, fmt.Errorf("cgroup: create %s: %w", dir, err)
		}
		created = append(created, dir)
		cg.paths[c] = dir
	}
	return cg, nil
}

func (c *v1) AddProc(pids ...int) error {
	for _, ctrl := range v1Controllers {
		for _, pid := range pids {
			if err := writeUint(path.Join(c.paths[ctrl], cgroupProcs), uint64(pid)); err != nil {
				return fmt.Errorf("cgroup: add pid %d to %s: %w", pid, ctrl, err)
			}
		}
	}
	return nil
}

func (c *v1) Processes() ([]int, error) {
	return readProcs(path.Join(c.paths["freezer"], cgroupProcs))
}

const (
	frozen      = "FROZEN"
	thawed      = "THAWED"
	freezerWait = 10 * time.Millisecond
)

func (c *v1) Freeze() error {
	state := path.Join(c.paths["freezer"], "freezer.state")
	if err := writeFile(state, []byte(frozen)); err != nil {
		return fmt.Errorf("cgroup: freeze: %w", err)
	}
	// the write is asynchronous, FREEZING persists until all tasks stop
	for i := 0; i < 100; i++ {
		b, err := readFile(state)
		if err != nil {
			return fmt.Errorf("cgroup: freeze: %w", err)
		}
		if strings.TrimSpace(string(b)) == frozen {
			return nil
		}
		time.Sleep(freezerWait)
	}
	return fmt.Errorf("cgroup: freeze: tasks did not stop")
}

func (c *v1) Thaw() error {
	if err := writeFile(path.Join(c.paths["freezer"], "freezer.state"), []byte(thawed)); err != nil {
		return fmt.Errorf("cgroup: thaw: %w", err)
	}
	return nil
}

func (c *v1) Stat() (*Stat, error) {
	cpu, err := readUint(path.Join(c.paths["cpuacct"], "cpuacct.usage"))
	if err != nil {
		return nil, fmt.Errorf("cgroup: cpuacct.usage: %w", err)
	}
	mem, err := readUint(path.Join(c.paths["memory"], "memory.usage_in_bytes"))
	if err != nil {
		return nil, fmt.Errorf("cgroup: memory.usage_in_bytes: %w", err)
	}
	pids, err := readUint(path.Join(c.paths["pids"], "pids.current"))
	if err != nil {
		return nil, fmt.Errorf("cgroup: pids.current: %w", err)
	}
	return &Stat{CPUUsage: cpu, Memory: mem, Pids: pids}, nil
}

func (c *v1) Destroy() error {
	var firstErr error
	for _, ctrl := range v1Controllers {
		if err := remove(c.paths[ctrl]); err != nil && firstErr == nil {
			if !os.IsNotExist(err) {
				firstErr = err
			}
		}
	}
	return firstErr
}
