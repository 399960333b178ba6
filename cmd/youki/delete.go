package main

import (
	"github.com/spf13/cobra"
)

var flagForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <container-id>",
	Short: "Delete a stopped container's state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadContainer(args[0])
		if err != nil {
			return err
		}
		return c.Delete(flagForce)
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&flagForce, "force", "f", false,
		"kill the container first if it is still running")
	rootCmd.AddCommand(deleteCmd)
}
