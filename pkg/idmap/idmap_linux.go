// Package idmap writes user and group id mappings for a process running
// in a new user namespace. The mapping files live in procfs and must be
// written by a privileged peer outside the namespace, which is why the
// bootstrap handshake routes the request up to the main process.
package idmap

import (
	"fmt"
	"strconv"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"
)

var (
	setGroupsAllow = []byte("allow")
	setGroupsDeny  = []byte("deny")
)

// Write persists uid and gid mappings for pid. Empty mappings map the
// namespace root onto the caller's effective id, matching the behavior
// of a runtime invoked without an explicit remapping configuration.
// Setgroups is denied unless gid mappings were explicitly configured;
// the kernel rejects gid_map writes from unprivileged callers otherwise.
func Write(pid int, uidMaps, gidMaps []specs.LinuxIDMapping) error {
	pidStr := strconv.Itoa(pid)

	uid := Format(uidMaps)
	if len(uidMaps) == 0 {
		uid = selfMap(unix.Geteuid())
	}
	if err := writeFile("/proc/"+pidStr+"/uid_map", uid); err != nil {
		return fmt.Errorf("idmap: uid_map for pid %d: %w", pid, err)
	}

	setGroups := setGroupsDeny
	if len(gidMaps) > 0 && unix.Geteuid() == 0 {
		setGroups = setGroupsAllow
	}
	if err := writeFile("/proc/"+pidStr+"/setgroups", setGroups); err != nil {
		return fmt.Errorf("idmap: setgroups for pid %d: %w", pid, err)
	}

	gid := Format(gidMaps)
	if len(gidMaps) == 0 {
		gid = selfMap(unix.Getegid())
	}
	if err := writeFile("/proc/"+pidStr+"/gid_map", gid); err != nil {
		return fmt.Errorf("idmap: gid_map for pid %d: %w", pid, err)
	}
	return nil
}

// Format renders mappings in the procfs "inside outside count" format.
func Format(maps []specs.LinuxIDMapping) []byte {
	var data []byte
	for _, m := range maps {
		line := strconv.FormatUint(uint64(m.ContainerID), 10) + " " +
			strconv.FormatUint(uint64(m.HostID), 10) + " " +
			strconv.FormatUint(uint64(m.Size), 10) + "\n"
		data = append(data, line...)
	}
	return data
}

func selfMap(hostID int) []byte {
	return []byte("0 " + strconv.Itoa(hostID) + " 1\n")
}

func writeFile(path string, content []byte) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	if _, err := unix.Write(fd, content); err != nil {
		unix.Close(fd)
		return err
	}
	return unix.Close(fd)
}
