// ABOUTME: Server configuration loading
// ABOUTME: Merges defaults, an optional config file, environment and flags with viper
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/filterstream/internal/pipeline"
)

// EnvPrefix namespaces environment overrides, e.g. FILTERSTREAM_CHUNK_FRAMES
const EnvPrefix = "FILTERSTREAM"

// Config holds every server setting
type Config struct {
	Port           int
	Name           string
	LogLevel       string
	LogFile        string
	MediaDir       string
	ChunkFrames    int
	SearchURL      string
	DownloadDir    string
	MaxDownload    int64
	AllowURLs      bool
	RemoteTimeout  time.Duration
	SendQueueDepth int
	PollInterval   time.Duration
	TransitionBand float64
	FilterChain    []pipeline.Stage
	EnableMDNS     bool
	TUI            bool
	Debug          bool
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("port", 5000)
	v.SetDefault("name", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("media_dir", ".")
	v.SetDefault("chunk_frames", 1024)
	v.SetDefault("search_url", "")
	v.SetDefault("download_dir", "")
	v.SetDefault("max_download_bytes", int64(256<<20))
	v.SetDefault("allow_direct_urls", false)
	v.SetDefault("remote_timeout", 60*time.Second)
	v.SetDefault("send_queue_depth", 8)
	v.SetDefault("poll_interval", 20*time.Millisecond)
	v.SetDefault("transition_band", 0.05)
	v.SetDefault("filter_chain", []string{"lowpass", "speed"})
	v.SetDefault("enable_mdns", true)
	v.SetDefault("tui", false)
	v.SetDefault("debug", false)
}

// NewFlagSet declares the server's command-line flags. Flag names use
// dashes; each maps to the config key with underscores.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Config file (yaml, toml or json)")
	fs.Int("port", 5000, "HTTP/WebSocket port")
	fs.String("name", "", "Server friendly name (default: hostname-filterstream)")
	fs.String("log-level", "info", "Log level: none, error, warn, info, debug")
	fs.String("log-file", "", "Log file path (default: stdout)")
	fs.String("media-dir", ".", "Directory local file sources are served from")
	fs.Int("chunk-frames", 1024, "Frames per streamed chunk")
	fs.String("search-url", "", "Remote search endpoint; empty disables remote sources")
	fs.String("download-dir", "", "Cache directory for remote tracks")
	fs.Int64("max-download-bytes", 256<<20, "Size limit for one remote track download")
	fs.Bool("allow-direct-urls", false, "Let clients fetch an http(s) track URL without searching")
	fs.Duration("remote-timeout", 60*time.Second, "Time limit for opening a source")
	fs.Int("send-queue-depth", 8, "Outbound frames queued per connection")
	fs.Duration("poll-interval", 20*time.Millisecond, "Command poll interval while the send queue is full")
	fs.Float64("transition-band", 0.05, "Low-pass transition width as a fraction of the sample rate")
	fs.StringSlice("filter-chain", []string{"lowpass", "speed"}, "Per-channel filter order")
	fs.Bool("enable-mdns", true, "Advertise the server over mDNS")
	fs.Bool("tui", false, "Show the session dashboard")
	fs.Bool("debug", false, "Enable debug logging")
	return fs
}

// Load parses args and resolves the configuration.
// Precedence: flags, environment, config file, defaults.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("filterstream-server")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setViperDefaults(v)

	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Hosting platforms set a bare PORT
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error during config read: %w", err)
			}
			logrus.WithField("config_file", path).Info("No config file found")
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	chain, err := pipeline.ParseChain(v.GetStringSlice("filter_chain"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           v.GetInt("port"),
		Name:           v.GetString("name"),
		LogLevel:       v.GetString("log_level"),
		LogFile:        v.GetString("log_file"),
		MediaDir:       v.GetString("media_dir"),
		ChunkFrames:    v.GetInt("chunk_frames"),
		SearchURL:      v.GetString("search_url"),
		DownloadDir:    v.GetString("download_dir"),
		MaxDownload:    v.GetInt64("max_download_bytes"),
		AllowURLs:      v.GetBool("allow_direct_urls"),
		RemoteTimeout:  v.GetDuration("remote_timeout"),
		SendQueueDepth: v.GetInt("send_queue_depth"),
		PollInterval:   v.GetDuration("poll_interval"),
		TransitionBand: v.GetFloat64("transition_band"),
		FilterChain:    chain,
		EnableMDNS:     v.GetBool("enable_mdns"),
		TUI:            v.GetBool("tui"),
		Debug:          v.GetBool("debug"),
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if cfg.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Name = fmt.Sprintf("%s-filterstream", hostname)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ChunkFrames <= 0 {
		return fmt.Errorf("chunk_frames must be positive, got %d", c.ChunkFrames)
	}
	if c.SendQueueDepth <= 0 {
		return fmt.Errorf("send_queue_depth must be positive, got %d", c.SendQueueDepth)
	}
	if c.MaxDownload <= 0 {
		return fmt.Errorf("max_download_bytes must be positive, got %d", c.MaxDownload)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote_timeout must be positive, got %s", c.RemoteTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if !(c.TransitionBand > 0 && c.TransitionBand <= 1) {
		return fmt.Errorf("transition_band must be in (0, 1], got %g", c.TransitionBand)
	}
	switch c.LogLevel {
	case "none", "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("unexpected log level %q", c.LogLevel)
	}
	return nil
}
