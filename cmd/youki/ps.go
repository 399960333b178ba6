package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps <container-id>",
	Short: "List the processes running inside a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadContainer(args[0])
		if err != nil {
			return err
		}
		pids, err := c.Processes()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "PID")
		for _, pid := range pids {
			fmt.Fprintln(os.Stdout, pid)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(psCmd)
}
