package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/voxrec/internal/capture"
	"github.com/fakeyudi/voxrec/internal/playback"
	"github.com/fakeyudi/voxrec/internal/recording"
)

// playOutput is swapped out in tests.
var playOutput playback.Output = playback.PulseOutput{AppName: "voxrec"}

var playCmd = &cobra.Command{
	Use:   "play <file.wav>",
	Short: "Play a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		p := playback.NewPlayer(playOutput, logger.Named("player"))
		if err := p.Load(recording.NewArtifact("", capture.MIMEType, data)); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		cmd.Printf("playing %s (%s)\n", args[0], p.Duration().Round(100*time.Millisecond))
		return p.Play(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
