package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fakeyudi/voxrec/internal/recording"
)

var (
	captureFor     time.Duration
	captureSource  string
	captureOut     string
	captureQuiet   bool
	finalizeWithin = 5 * time.Second
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record for a fixed time without the interactive screen, then save",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if captureFor <= 0 {
			return errors.New("--for must be positive")
		}
		c := GetConfig()
		if captureSource != "" {
			c.Source = captureSource
		}
		if captureOut != "" {
			c.OutputDir = captureOut
		}

		stopped := make(chan recording.Status, 1)
		a, err := newApp(c, recording.WithObserver(func(st recording.Status) {
			if st.State == recording.StateStopped {
				select {
				case stopped <- st:
				default:
				}
			}
		}))
		if err != nil {
			return err
		}
		defer a.ctrl.Close()

		var savedPath string
		a.downloader.Saved = func(p string) { savedPath = p }

		ctx := cmd.Context()
		if err := a.ctrl.Start(ctx); err != nil {
			return err
		}

		done := make(chan struct{})
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			defer close(done)
			timer := time.NewTimer(captureFor)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-gctx.Done():
				a.ctrl.Cancel()
				return gctx.Err()
			}
			if err := a.ctrl.Stop(); err != nil {
				return err
			}
			st, err := awaitStopped(gctx, stopped, finalizeWithin)
			if err != nil {
				return err
			}
			if err := a.ctrl.Save(gctx); err != nil {
				return err
			}
			logger.Infow("capture complete", "session", st.SessionID, "bytes", st.Artifact.Len(), "duration", st.Artifact.Duration)
			return nil
		})

		if !captureQuiet {
			g.Go(func() error {
				tick := time.NewTicker(time.Second)
				defer tick.Stop()
				for {
					select {
					case <-done:
						return nil
					case <-tick.C:
						st := a.ctrl.Status()
						cmd.PrintErrf("\r%s  %s  %d bytes", st.State, st.Elapsed.Round(time.Second), st.Bytes)
					}
				}
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
		if !captureQuiet {
			cmd.PrintErrln()
		}
		cmd.Println(savedPath)
		return nil
	},
}

// awaitStopped waits for the controller to report the finished recording.
func awaitStopped(ctx context.Context, ch <-chan recording.Status, within time.Duration) (recording.Status, error) {
	timer := time.NewTimer(within)
	defer timer.Stop()
	select {
	case st := <-ch:
		if st.Err != nil {
			return st, fmt.Errorf("finalizing recording: %w", st.Err)
		}
		return st, nil
	case <-timer.C:
		return recording.Status{}, fmt.Errorf("recording was not finalized within %s", within)
	case <-ctx.Done():
		return recording.Status{}, ctx.Err()
	}
}

func init() {
	captureCmd.Flags().DurationVar(&captureFor, "for", 5*time.Second, "how long to record")
	captureCmd.Flags().StringVar(&captureSource, "source", "", "capture source (pulse or tone)")
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "", "output directory (default from config)")
	captureCmd.Flags().BoolVarP(&captureQuiet, "quiet", "q", false, "do not print progress")
	rootCmd.AddCommand(captureCmd)
}
