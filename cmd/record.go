package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fakeyudi/voxrec/internal/config"
	"github.com/fakeyudi/voxrec/internal/recording"
	"github.com/fakeyudi/voxrec/internal/tui"
)

var recordSource string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Open the interactive recorder",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdin.Fd()) {
			return errors.New("record needs an interactive terminal; use \"voxrec capture\" instead")
		}
		return runRecord(cmd)
	},
}

func runRecord(cmd *cobra.Command) error {
	c := GetConfig()
	if recordSource != "" {
		c.Source = recordSource
	}

	bridge := &tui.Bridge{}
	a, err := newApp(c, recording.WithObserver(bridge.Notify))
	if err != nil {
		return err
	}
	defer a.ctrl.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, a.ctrl, bridge, tui.Options{
			Canvas:    a.canvas,
			Player:    a.player,
			FrameRate: c.FrameRate,
			OutputDir: c.OutputDir,
		})
	})

	// Visualizer settings follow config edits while the recorder is open.
	g.Go(func() error {
		return config.Watch(gctx, config.Paths(), func(path string) {
			next, err := config.Load()
			if err != nil {
				logger.Warnw("config reload failed", "path", path, "error", err)
				bridge.Send(tui.NoticeMsg("config reload failed: " + err.Error()))
				return
			}
			a.ctrl.SetBars(barsFor(next))
			logger.Infow("config reloaded", "path", path)
			bridge.Send(tui.NoticeMsg("settings reloaded from " + path))
		})
	})

	return g.Wait()
}

func init() {
	recordCmd.Flags().StringVar(&recordSource, "source", "", "capture source (pulse or tone)")
	rootCmd.AddCommand(recordCmd)
}
