package main

import (
	"github.com/spf13/cobra"

	"github.com/yjuba/youki/container"
	"github.com/yjuba/youki/process"
)

// boot and init are internal entry points the runtime re-executes
// itself into during create. They are hidden from help output and must
// never be invoked by hand.

var bootRoot, bootBundle string

var bootCmd = &cobra.Command{
	Use:    "boot <container-id>",
	Short:  "Spawn the container init process (internal)",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := container.LoadSpec(bootBundle)
		if err != nil {
			return err
		}
		return process.RunChild(&process.ChildConfig{
			ID:     args[0],
			Root:   bootRoot,
			Bundle: bootBundle,
			Spec:   spec,
		})
	},
}

var initCmd = &cobra.Command{
	Use:    "init <container-id>",
	Short:  "Finish container setup and exec the payload (internal)",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := container.LoadSpec(bootBundle)
		if err != nil {
			return err
		}
		// RunInit only returns on error; on success exec replaces us
		return process.RunInit(&process.InitConfig{
			ID:     args[0],
			Root:   bootRoot,
			Bundle: bootBundle,
			Spec:   spec,
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{bootCmd, initCmd} {
		cmd.Flags().StringVar(&bootRoot, "root", container.DefaultRoot, "runtime root")
		cmd.Flags().StringVar(&bootBundle, "bundle", "", "bundle directory")
		rootCmd.AddCommand(cmd)
	}
}
