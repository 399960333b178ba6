package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yjuba/youki/pkg/cgroup"
)

var flagInterval time.Duration

// event is the envelope around one stats sample, mirroring the shape
// other runtimes emit so existing consumers can parse it.
type event struct {
	Type string       `json:"type"`
	ID   string       `json:"id"`
	Data *cgroup.Stat `json:"data,omitempty"`
}

var eventsCmd = &cobra.Command{
	Use:   "events <container-id>",
	Short: "Print container resource usage statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadContainer(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		for {
			stat, err := c.Stats()
			if err != nil {
				return err
			}
			if err := enc.Encode(event{Type: "stats", ID: c.ID(), Data: stat}); err != nil {
				return err
			}
			if flagInterval <= 0 {
				return nil
			}
			time.Sleep(flagInterval)
			if c, err = loadContainer(c.ID()); err != nil {
				return err
			}
		}
	},
}

func init() {
	eventsCmd.Flags().DurationVar(&flagInterval, "interval", 0,
		"repeat with this period instead of sampling once")
	rootCmd.AddCommand(eventsCmd)
}
