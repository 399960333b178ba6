package cgroup

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Type is the detected cgroup hierarchy version.
type Type int

const (
	TypeNone Type = iota
	TypeV1
	TypeV2
)

func (t Type) String() string {
	switch t {
	case TypeV1:
		return "v1"
	case TypeV2:
		return "v2"
	}
	return "none"
}

const (
	dirPerm     = 0755
	filePerm    = 0644
	cgroupProcs = "cgroup.procs"
)

func detectType() Type {
	var st unix.Statfs_t
	if err := unix.Statfs(basePath, &st); err != nil {
		return TypeNone
	}
	switch st.Type {
	case unix.CGROUP2_SUPER_MAGIC:
		return TypeV2
	case unix.TMPFS_MAGIC:
		return TypeV1
	}
	return TypeNone
}

func readFile(p string) ([]byte, error) {
	return os.ReadFile(p)
}

func writeFile(p string, content []byte) error {
	return os.WriteFile(p, content, filePerm)
}

func readUint(p string) (uint64, error) {
	b, err := readFile(p)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	if s == "max" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func writeUint(p string, v uint64) error {
	return writeFile(p, []byte(strconv.FormatUint(v, 10)))
}

func readProcs(p string) ([]int, error) {
	b, err := readFile(p)
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, line := range bytes.Split(b, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		pid, err := strconv.Atoi(string(line))
		if err != nil {
			return nil, err
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// parseKeyedValue extracts one "key value" line from a stat file such as
// cpu.stat.
func parseKeyedValue(content []byte, key string) (uint64, bool) {
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == key {
			v, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

func remove(name string) error {
	if name == "" {
		return nil
	}
	return os.Remove(name)
}
