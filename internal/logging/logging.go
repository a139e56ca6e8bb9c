// Package logging builds the application's structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control where and how much is logged.
type Options struct {
	Name  string // logger name, default "voxrec"
	Path  string // log file, default $XDG_STATE_HOME/voxrec/voxrec.log
	Level string // debug, info, warn or error; default info

	// Console mirrors log output to this writer when set. The TUI leaves it
	// nil since the terminal belongs to the screen.
	Console io.Writer
}

// DefaultPath returns the log file location.
// Path: $XDG_STATE_HOME/voxrec/voxrec.log or ~/.local/state/voxrec/voxrec.log
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "voxrec", "voxrec.log"), nil
}

// New returns a sugared logger writing JSON lines to a rotated file.
func New(opts Options) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(orDefault(opts.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	path := opts.Path
	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return nil, fmt.Errorf("resolving log path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), file, level)}
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(opts.Console), level))
	}

	return zap.New(zapcore.NewTee(cores...)).Named(orDefault(opts.Name, "voxrec")).Sugar(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
