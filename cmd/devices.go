package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/voxrec/internal/capture"
)

// listSources is swapped out in tests.
var listSources = capture.ListSources

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices known to the audio server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := listSources("voxrec")
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			cmd.Println("no capture devices found")
			return nil
		}
		for _, s := range sources {
			mark := " "
			if s.Default {
				mark = "*"
			}
			cmd.Printf("%s %-48s %s\n", mark, s.ID, s.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
