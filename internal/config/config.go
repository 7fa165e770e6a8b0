// Package config loads daemon configuration. Values are layered, lowest to
// highest: defaults, YAML file, .env file, GESTUREOS_* environment variables
// and command line flags.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the daemon reads.
const EnvPrefix = "GESTUREOS_"

// Config is the top-level daemon configuration.
type Config struct {
	Debug   bool   `yaml:"debug" env:"DEBUG"`
	DataDir string `yaml:"data_dir" env:"DATA_DIR"`

	HTTP       HTTPConfig       `yaml:"http" envPrefix:"HTTP_"`
	Engine     EngineConfig     `yaml:"engine" envPrefix:"ENGINE_"`
	Keyboard   KeyboardConfig   `yaml:"keyboard" envPrefix:"KEYBOARD_"`
	Recognizer RecognizerConfig `yaml:"recognizer" envPrefix:"RECOGNIZER_"`
	Plugins    PluginsConfig    `yaml:"plugins" envPrefix:"PLUGINS_"`
	Tray       TrayConfig       `yaml:"tray" envPrefix:"TRAY_"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR"`
}

type EngineConfig struct {
	WindowSize int `yaml:"window_size" env:"WINDOW_SIZE"`
	QueueSize  int `yaml:"queue_size" env:"QUEUE_SIZE"`
}

type KeyboardConfig struct {
	Enabled   bool          `yaml:"enabled" env:"ENABLED"`
	Heartbeat time.Duration `yaml:"heartbeat" env:"HEARTBEAT"`
	// Devices lists /dev/input/event* paths read directly on Linux.
	Devices []string `yaml:"devices" env:"DEVICES" envSeparator:","`
}

type RecognizerConfig struct {
	// Command is the recognizer process to spawn. Empty disables it; the
	// websocket endpoint accepts predictions either way.
	Command       []string `yaml:"command" env:"COMMAND" envSeparator:" "`
	MinConfidence float64  `yaml:"min_confidence" env:"MIN_CONFIDENCE"`
}

type PluginsConfig struct {
	Dir     string        `yaml:"dir" env:"DIR"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Watch   bool          `yaml:"watch" env:"WATCH"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Defaults returns a fully populated Config.
func Defaults() Config {
	return Config{
		DataDir: defaultDataDir(),
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Engine: EngineConfig{
			WindowSize: 5,
			QueueSize:  64,
		},
		Keyboard: KeyboardConfig{
			Enabled:   true,
			Heartbeat: time.Second,
		},
		Plugins: PluginsConfig{
			Timeout: 5 * time.Second,
			Watch:   true,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gestureos"
	}
	return filepath.Join(home, ".gestureos")
}

// LoadFile decodes a YAML file on top of cfg. Unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return errors.New("decode config yaml: unexpected trailing document")
	}
	return nil
}

// Load builds the configuration from every layer. args are the command line
// arguments without the program name.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("gestureos", flag.ContinueOnError)

	var (
		configPath = fs.String("config", "", "path to YAML config file")
		envFile    = fs.String("env-file", ".env", "path to .env file (ignored when missing)")

		debug         = fs.Bool("debug", false, "enable debug logging")
		dataDir       = fs.String("data-dir", "", "directory for the database and plugins")
		addr          = fs.String("addr", "", "HTTP listen address")
		staticDir     = fs.String("static-dir", "", "directory of static web files")
		windowSize    = fs.Int("window-size", 0, "per-hand sliding window size")
		keyboard      = fs.Bool("keyboard", false, "enable keyboard emulation")
		heartbeat     = fs.Duration("heartbeat", 0, "keyboard emulation period")
		devices       = fs.String("devices", "", "comma separated evdev keyboard devices")
		recognizer    = fs.String("recognizer", "", "recognizer command line")
		minConfidence = fs.Float64("min-confidence", 0, "confidence floor (0-100) below which a hand reads as none")
		pluginsDir    = fs.String("plugins-dir", "", "plugin directory")
		tray          = fs.Bool("tray", false, "show the system tray icon")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	if *configPath != "" {
		if err := LoadFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}
	if err := env.Parse(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	// Only flags given explicitly override the lower layers.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = *debug
		case "data-dir":
			cfg.DataDir = *dataDir
		case "addr":
			cfg.HTTP.Addr = *addr
		case "static-dir":
			cfg.HTTP.StaticDir = *staticDir
		case "window-size":
			cfg.Engine.WindowSize = *windowSize
		case "keyboard":
			cfg.Keyboard.Enabled = *keyboard
		case "heartbeat":
			cfg.Keyboard.Heartbeat = *heartbeat
		case "devices":
			cfg.Keyboard.Devices = splitList(*devices)
		case "recognizer":
			cfg.Recognizer.Command = strings.Fields(*recognizer)
		case "min-confidence":
			cfg.Recognizer.MinConfidence = *minConfidence
		case "plugins-dir":
			cfg.Plugins.Dir = *pluginsDir
		case "tray":
			cfg.Tray.Enabled = *tray
		}
	})

	if cfg.Plugins.Dir == "" {
		cfg.Plugins.Dir = filepath.Join(cfg.DataDir, "plugins")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks config invariants.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.Engine.WindowSize < 1 {
		return fmt.Errorf("engine.window_size must be at least 1, got %d", c.Engine.WindowSize)
	}
	if c.Engine.QueueSize < 1 {
		return fmt.Errorf("engine.queue_size must be at least 1, got %d", c.Engine.QueueSize)
	}
	if c.Keyboard.Heartbeat <= 0 {
		return fmt.Errorf("keyboard.heartbeat must be positive, got %s", c.Keyboard.Heartbeat)
	}
	for i, dev := range c.Keyboard.Devices {
		if dev == "" {
			return fmt.Errorf("keyboard.devices[%d] is empty", i)
		}
	}
	if c.Recognizer.MinConfidence < 0 || c.Recognizer.MinConfidence > 100 {
		return fmt.Errorf("recognizer.min_confidence must be within 0..100, got %v", c.Recognizer.MinConfidence)
	}
	if c.Plugins.Timeout <= 0 {
		return fmt.Errorf("plugins.timeout must be positive, got %s", c.Plugins.Timeout)
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "gestureos.db")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
