package cgroup

import (
	"fmt"
	"os"
	"path"
	"time"
)

type v2 struct {
	path string
}

func newV2(p string) (Cgroup, error) {
	dir := path.Join(basePath, p)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("cgroup: create %s: %w", dir, err)
	}
	return &v2{path: dir}, nil
}

func (c *v2) AddProc(pids ...int) error {
	for _, pid := range pids {
		if err := writeUint(path.Join(c.path, cgroupProcs), uint64(pid)); err != nil {
			return fmt.Errorf("cgroup: add pid %d: %w", pid, err)
		}
	}
	return nil
}

func (c *v2) Processes() ([]int, error) {
	return readProcs(path.Join(c.path, cgroupProcs))
}

func (c *v2) Freeze() error {
	if err := writeFile(path.Join(c.path, "cgroup.freeze"), []byte("1")); err != nil {
		return fmt.Errorf("cgroup: freeze: %w", err)
	}
	// cgroup.events reports "frozen 1" once all tasks stopped
	events := path.Join(c.path, "cgroup.events")
	for i := 0; i < 100; i++ {
		b, err := readFile(events)
		if err != nil {
			return fmt.Errorf("cgroup: freeze: %w", err)
		}
		if v, ok := parseKeyedValue(b, "frozen"); ok && v == 1 {
			return nil
		}
		time.Sleep(freezerWait)
	}
	return fmt.Errorf("cgroup: freeze: tasks did not stop")
}

func (c *v2) Thaw() error {
	if err := writeFile(path.Join(c.path, "cgroup.freeze"), []byte("0")); err != nil {
		return fmt.Errorf("cgroup: thaw: %w", err)
	}
	return nil
}

func (c *v2) Stat() (*Stat, error) {
	b, err := readFile(path.Join(c.path, "cpu.stat"))
	if err != nil {
		return nil, fmt.Errorf("cgroup: cpu.stat: %w", err)
	}
	usec, ok := parseKeyedValue(b, "usage_usec")
	if !ok {
		return nil, fmt.Errorf("cgroup: cpu.stat: no usage_usec")
	}
	mem, err := readUint(path.Join(c.path, "memory.current"))
	if err != nil {
		// memory controller may not be delegated in rootless setups
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cgroup: memory.current: %w", err)
		}
	}
	pids, err := readUint(path.Join(c.path, "pids.current"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cgroup: pids.current: %w", err)
		}
	}
	return &Stat{CPUUsage: usec * 1000, Memory: mem, Pids: pids}, nil
}

func (c *v2) Destroy() error {
	err := remove(c.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
