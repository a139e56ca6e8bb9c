package cmd

import (
	"fmt"
	"time"

	"github.com/fakeyudi/voxrec/internal/analysis"
	"github.com/fakeyudi/voxrec/internal/capture"
	"github.com/fakeyudi/voxrec/internal/config"
	"github.com/fakeyudi/voxrec/internal/download"
	"github.com/fakeyudi/voxrec/internal/playback"
	"github.com/fakeyudi/voxrec/internal/recording"
	"github.com/fakeyudi/voxrec/internal/render"
)

// app is a fully wired controller and the collaborators the commands touch.
type app struct {
	ctrl       *recording.Controller
	canvas     *render.Canvas
	scheduler  *render.TickerScheduler
	player     *playback.Player
	downloader *download.FileDownloader
}

// captureService picks the capture backend named by c.Source.
func captureService(c config.Config) (recording.CaptureService, error) {
	codec, err := capture.ParseCodec(c.Codec)
	if err != nil {
		return nil, err
	}
	switch c.Source {
	case "tone":
		return &capture.Tone{Codec: codec}, nil
	case "pulse", "":
		return &capture.Pulse{AppName: "voxrec", Codec: codec, Log: logger.Named("pulse")}, nil
	}
	return nil, fmt.Errorf("unknown source %q (want pulse or tone)", c.Source)
}

func barsFor(c config.Config) render.Bars {
	return render.Bars{Width: c.BarWidth, Gap: c.BarGap, Scale: c.BarScale}
}

func newApp(c config.Config, opts ...recording.Option) (*app, error) {
	svc, err := captureService(c)
	if err != nil {
		return nil, err
	}
	a := &app{
		canvas:     render.NewCanvas(c.SurfaceWidth, c.SurfaceHeight),
		scheduler:  render.NewTickerScheduler(c.FrameRate),
		player:     playback.NewPlayer(playback.PulseOutput{AppName: "voxrec"}, logger.Named("player")),
		downloader: download.New(c.OutputDir, logger.Named("download")),
	}
	opts = append([]recording.Option{
		recording.WithLogger(logger.Named("recorder")),
		recording.WithBars(barsFor(c)),
		recording.WithConstraints(recording.Constraints{
			Device:           c.Device,
			SampleRate:       c.SampleRate,
			FragmentInterval: time.Duration(c.FragmentInterval),
		}),
	}, opts...)
	a.ctrl, err = recording.New(recording.Deps{
		Capture:    svc,
		Analysis:   analysis.NewService(c.FFTSize),
		Surface:    a.canvas,
		Scheduler:  a.scheduler,
		Downloader: a.downloader,
		Player:     a.player,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}
