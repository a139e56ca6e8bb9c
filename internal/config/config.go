package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ProjectFile is the per-directory config file name.
const ProjectFile = ".voxrecconfig"

// Config holds all configurable voxrec settings. Zero values mean "unset" so
// layers can be merged field by field.
type Config struct {
	OutputDir        string   `json:"output_dir" mapstructure:"output_dir"`
	Codec            string   `json:"codec" mapstructure:"codec" validate:"oneof=pcm16 mulaw alaw"`
	SampleRate       int      `json:"sample_rate" mapstructure:"sample_rate" validate:"min=8000,max=48000"`
	FragmentInterval Duration `json:"fragment_interval" mapstructure:"fragment_interval" validate:"interval"`
	FFTSize          int      `json:"fft_size" mapstructure:"fft_size" validate:"min=32,max=2048,pow2"`
	FrameRate        int      `json:"frame_rate" mapstructure:"frame_rate" validate:"min=1,max=120"`
	BarWidth         int      `json:"bar_width" mapstructure:"bar_width" validate:"min=1"`
	BarGap           int      `json:"bar_gap" mapstructure:"bar_gap" validate:"min=0"`
	BarScale         float64  `json:"bar_scale" mapstructure:"bar_scale" validate:"gt=0"`
	SurfaceWidth     int      `json:"surface_width" mapstructure:"surface_width" validate:"min=8"`
	SurfaceHeight    int      `json:"surface_height" mapstructure:"surface_height" validate:"min=8"`
	Source           string   `json:"source" mapstructure:"source" validate:"oneof=pulse tone"`
	Device           string   `json:"device" mapstructure:"device"`
	LogLevel         string   `json:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"250ms\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		OutputDir:        ".",
		Codec:            "pcm16",
		SampleRate:       16000,
		FragmentInterval: Duration(250 * time.Millisecond),
		FFTSize:          256,
		FrameRate:        30,
		BarWidth:         2,
		BarGap:           1,
		BarScale:         0.5,
		SurfaceWidth:     384,
		SurfaceHeight:    128,
		Source:           "pulse",
		LogLevel:         "info",
	}
}

// GlobalPath returns ~/.config/voxrec/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "voxrec", "config.json"), nil
}

// LoadGlobal reads ~/.config/voxrec/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .voxrecconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// envKeys are the settings that can be overridden with VOXREC_<KEY>.
var envKeys = []string{
	"output_dir", "codec", "sample_rate", "fragment_interval", "fft_size",
	"frame_rate", "bar_width", "bar_gap", "bar_scale", "surface_width",
	"surface_height", "source", "device", "log_level",
}

// LoadEnv reads VOXREC_* environment variables. Returns nil if none are set.
func LoadEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("voxrec")
	v.AutomaticEnv()

	var cfg Config
	found := false
	for _, key := range envKeys {
		if !v.IsSet(key) {
			continue
		}
		found = true
		if err := setField(&cfg, v, key); err != nil {
			return nil, &ParseError{Path: "$VOXREC_" + key, Err: err}
		}
	}
	if !found {
		return nil, nil
	}
	return &cfg, nil
}

func setField(cfg *Config, v *viper.Viper, key string) error {
	switch key {
	case "output_dir":
		cfg.OutputDir = v.GetString(key)
	case "codec":
		cfg.Codec = v.GetString(key)
	case "source":
		cfg.Source = v.GetString(key)
	case "device":
		cfg.Device = v.GetString(key)
	case "log_level":
		cfg.LogLevel = v.GetString(key)
	case "fragment_interval":
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return err
		}
		cfg.FragmentInterval = Duration(d)
	case "bar_scale":
		f, err := parseFloat(v.GetString(key))
		if err != nil {
			return err
		}
		cfg.BarScale = f
	default:
		n, err := parseInt(v.GetString(key))
		if err != nil {
			return err
		}
		switch key {
		case "sample_rate":
			cfg.SampleRate = n
		case "fft_size":
			cfg.FFTSize = n
		case "frame_rate":
			cfg.FrameRate = n
		case "bar_width":
			cfg.BarWidth = n
		case "bar_gap":
			cfg.BarGap = n
		case "surface_width":
			cfg.SurfaceWidth = n
		case "surface_height":
			cfg.SurfaceHeight = n
		}
	}
	return nil
}

// Load resolves the effective configuration: defaults, then the global file,
// then the project file, then the environment. The result is validated.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	env, err := LoadEnv()
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, project, env)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge combines config layers, later layers taking precedence. Nil layers
// and unset fields fall through to earlier layers, then defaults.
func Merge(layers ...*Config) Config {
	result := Defaults()
	for _, l := range layers {
		if l == nil {
			continue
		}
		result.apply(l)
	}
	return result
}

func (c *Config) apply(o *Config) {
	setString(&c.OutputDir, o.OutputDir)
	setString(&c.Codec, o.Codec)
	setString(&c.Source, o.Source)
	setString(&c.Device, o.Device)
	setString(&c.LogLevel, o.LogLevel)
	setInt(&c.SampleRate, o.SampleRate)
	setInt(&c.FFTSize, o.FFTSize)
	setInt(&c.FrameRate, o.FrameRate)
	setInt(&c.BarWidth, o.BarWidth)
	setInt(&c.BarGap, o.BarGap)
	setInt(&c.SurfaceWidth, o.SurfaceWidth)
	setInt(&c.SurfaceHeight, o.SurfaceHeight)
	if o.FragmentInterval != 0 {
		c.FragmentInterval = o.FragmentInterval
	}
	if o.BarScale != 0 {
		c.BarScale = o.BarScale
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
