package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/yjuba/youki/pkg/cgroup"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print host information relevant to running containers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var uts unix.Utsname
		if err := unix.Uname(&uts); err != nil {
			return fmt.Errorf("uname: %w", err)
		}
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		fmt.Printf("kernel    %s %s %s\n",
			unix.ByteSliceToString(uts.Sysname[:]),
			unix.ByteSliceToString(uts.Release[:]),
			unix.ByteSliceToString(uts.Machine[:]))
		fmt.Printf("hostname  %s\n", unix.ByteSliceToString(uts.Nodename[:]))
		fmt.Printf("os        %s\n", osRelease())
		fmt.Printf("cgroups   %s\n", cgroup.DetectedType)
		fmt.Printf("root      %s\n", root)
		return nil
	},
}

// osRelease extracts PRETTY_NAME from the standard os-release file.
func osRelease() string {
	b, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	return prettyName(b)
}

func prettyName(b []byte) string {
	for _, line := range strings.Split(string(b), "\n") {
		if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(v, `"`)
		}
	}
	return "unknown"
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
