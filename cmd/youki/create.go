package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yjuba/youki/container"
)

var flagBundle string

var createCmd = &cobra.Command{
	Use:   "create <container-id>",
	Short: "Create a container from an OCI bundle without starting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := createContainer(args[0])
		return err
	},
}

func createContainer(id string) (*container.Container, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	bundle := flagBundle
	if bundle == "" {
		if bundle, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve bundle: %w", err)
		}
	}
	c, err := container.Create(&container.CreateOpts{
		ID:               id,
		Bundle:           bundle,
		Root:             root,
		UseSystemdCgroup: flagSystemdCgroup,
		Stderr:           os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"id": id, "pid": c.State().Pid}).Debug("container created")
	return c, nil
}

func init() {
	createCmd.Flags().StringVarP(&flagBundle, "bundle", "b", "",
		"bundle directory (default current directory)")
	rootCmd.AddCommand(createCmd)
}
