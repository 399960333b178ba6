// Command youki is a low-level container runtime. It creates and runs
// containers from OCI bundles, tracking them under a shared root
// directory so separate invocations can operate on the same container.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yjuba/youki/container"
	"github.com/yjuba/youki/pkg/rootless"
	"github.com/yjuba/youki/process"
)

var (
	flagRoot          string
	flagLog           string
	flagLogFormat     string
	flagSystemdCgroup bool
)

func init() {
	// the boot and init roles must not spawn OS threads before their
	// namespace and credential setup is done
	if len(os.Args) > 1 && (os.Args[1] == "init" || os.Args[1] == "boot") {
		runtime.GOMAXPROCS(1)
		runtime.LockOSThread()
	}
}

var rootCmd = &cobra.Command{
	Use:           "youki",
	Short:         "A container runtime",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func setupLogging() error {
	switch flagLogFormat {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{DisableColors: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", flagLogFormat)
	}
	if flagLog != "" {
		f, err := os.OpenFile(flagLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
	}
	return nil
}

// resolveRoot applies the rootless fallback unless --root overrides it.
func resolveRoot() (string, error) {
	return container.ResolveRoot(flagRoot, rootless.Rootless())
}

// loadContainer is the common prologue of every command operating on an
// existing container.
func loadContainer(id string) (*container.Container, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	return container.Load(root, id)
}

// Exit codes. Scripts drive the runtime, so the class of failure is
// reported in the status rather than only in the log.
const (
	exitOK              = 0
	exitError           = 1
	exitInvalidState    = 2
	exitNotFound        = 3
	exitBootstrapFailed = 4
)

func exitCode(err error) int {
	var boot *process.BootstrapError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, container.ErrInvalidState):
		return exitInvalidState
	case errors.Is(err, container.ErrNotFound):
		return exitNotFound
	case errors.As(err, &boot):
		return exitBootstrapFailed
	default:
		return exitError
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", container.DefaultRoot,
		"root directory for container state")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log", "", "log file (default stderr)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text",
		"log format (text or json)")
	rootCmd.PersistentFlags().BoolVar(&flagSystemdCgroup, "systemd-cgroup", false,
		"use the systemd cgroup driver")

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(exitCode(err))
	}
}
