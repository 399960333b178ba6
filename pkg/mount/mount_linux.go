// Package mount performs the filesystem mounts the container
// configuration requests inside the init process's mount namespace.
package mount

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Mount defines syscall arguments for one mount point
type Mount struct {
	Source, Target, FsType, Data string
	Flags                        uintptr
}

var optionFlags = map[string]uintptr{
	"bind":        syscall.MS_BIND,
	"rbind":       syscall.MS_BIND | syscall.MS_REC,
	"ro":          syscall.MS_RDONLY,
	"rw":          0,
	"nosuid":      syscall.MS_NOSUID,
	"suid":        0,
	"nodev":       syscall.MS_NODEV,
	"dev":         0,
	"noexec":      syscall.MS_NOEXEC,
	"exec":        0,
	"sync":        syscall.MS_SYNCHRONOUS,
	"async":       0,
	"dirsync":     syscall.MS_DIRSYNC,
	"remount":     syscall.MS_REMOUNT,
	"mand":        syscall.MS_MANDLOCK,
	"nomand":      0,
	"atime":       0,
	"noatime":     syscall.MS_NOATIME,
	"diratime":    0,
	"nodiratime":  syscall.MS_NODIRATIME,
	"relatime":    syscall.MS_RELATIME,
	"norelatime":  0,
	"strictatime": syscall.MS_STRICTATIME,
	"private":     syscall.MS_PRIVATE,
	"rprivate":    syscall.MS_PRIVATE | syscall.MS_REC,
	"shared":      syscall.MS_SHARED,
	"rshared":     syscall.MS_SHARED | syscall.MS_REC,
	"slave":       syscall.MS_SLAVE,
	"rslave":      syscall.MS_SLAVE | syscall.MS_REC,
	"unbindable":  syscall.MS_UNBINDABLE,
}

// FromSpec converts a configured mount point. Options that are not mount
// flags are passed through as filesystem data.
func FromSpec(m specs.Mount) Mount {
	var (
		flags uintptr
		data  []string
	)
	for _, o := range m.Options {
		if f, ok := optionFlags[o]; ok {
			flags |= f
		} else {
			data = append(data, o)
		}
	}
	return Mount{
		Source: m.Source,
		Target: m.Destination,
		FsType: m.Type,
		Flags:  flags,
		Data:   strings.Join(data, ","),
	}
}

// MountTo performs the mount with the target resolved under rootfs,
// creating the target directory if absent.
func (m Mount) MountTo(rootfs string) error {
	target := filepath.Join(rootfs, m.Target)
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("mount: mkdir %s: %w", target, err)
	}
	if err := syscall.Mount(m.Source, target, m.FsType, m.Flags, m.Data); err != nil {
		return fmt.Errorf("mount: %s: %w", m.String(), err)
	}
	// Read-only bind mount need to be remounted
	const bindRo = syscall.MS_BIND | syscall.MS_RDONLY
	if m.Flags&bindRo == bindRo {
		if err := syscall.Mount("", target, m.FsType, m.Flags|syscall.MS_REMOUNT, m.Data); err != nil {
			return fmt.Errorf("mount: remount ro %s: %w", m.String(), err)
		}
	}
	return nil
}

func (m Mount) String() string {
	switch {
	case m.Flags&syscall.MS_BIND != 0:
		flag := "rw"
		if m.Flags&syscall.MS_RDONLY != 0 {
			flag = "ro"
		}
		return fmt.Sprintf("bind[%s:%s:%s]", m.Source, m.Target, flag)
	case m.FsType == "tmpfs":
		return fmt.Sprintf("tmpfs[%s]", m.Target)
	case m.FsType == "proc":
		return "proc[]"
	default:
		return fmt.Sprintf("mount[%s,%s:%s:%x,%s]", m.FsType, m.Source, m.Target, m.Flags, m.Data)
	}
}
