package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. It may be absent.
const DefaultPath = "config.yaml"

const (
	EngineYtDlp   = "ytdlp"
	EngineYouTube = "youtube"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Engine  EngineConfig  `yaml:"engine"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig contains the download directory
type StorageConfig struct {
	DownloadDir string `yaml:"download_dir"`
}

// EngineConfig selects and tunes the extraction engine
type EngineConfig struct {
	Name         string `yaml:"name"`
	YtDlpPath    string `yaml:"ytdlp_path"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	AudioBitrate string `yaml:"audio_bitrate"`
	AutoInstall  bool   `yaml:"auto_install"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DownloadDir: "downloads",
		},
		Engine: EngineConfig{
			Name:         EngineYtDlp,
			AudioBitrate: "192",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path falls back
// to DefaultPath, which is allowed to be missing.
func Load(path string) (*Config, error) {
	cfg := Default()

	optional := path == ""
	if optional {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from YTDL_* environment variables.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"YTDL_ADDR":          &c.Server.Addr,
		"YTDL_DOWNLOAD_DIR":  &c.Storage.DownloadDir,
		"YTDL_ENGINE":        &c.Engine.Name,
		"YTDL_YTDLP_PATH":    &c.Engine.YtDlpPath,
		"YTDL_FFMPEG_PATH":   &c.Engine.FFmpegPath,
		"YTDL_AUDIO_BITRATE": &c.Engine.AudioBitrate,
	}
	for key, field := range strs {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv("YTDL_AUTO_INSTALL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid YTDL_AUTO_INSTALL %q: %w", v, err)
		}
		c.Engine.AutoInstall = b
	}

	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	c.Engine.Name = strings.ToLower(strings.TrimSpace(c.Engine.Name))
	switch c.Engine.Name {
	case EngineYtDlp, EngineYouTube:
	default:
		return fmt.Errorf("unknown engine %q (use %q or %q)", c.Engine.Name, EngineYtDlp, EngineYouTube)
	}
	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}
	if c.Storage.DownloadDir == "" {
		return errors.New("download directory is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = Default().Server.ShutdownTimeout
	}
	return nil
}
