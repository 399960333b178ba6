package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <container-id>",
	Short: "Create and immediately start a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := createContainer(args[0])
		if err != nil {
			return err
		}
		return c.Start()
	},
}

func init() {
	runCmd.Flags().StringVarP(&flagBundle, "bundle", "b", "",
		"bundle directory (default current directory)")
	rootCmd.AddCommand(runCmd)
}
