package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig drives the profilectl terminal host.
type ClientConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LogLevel  string        `mapstructure:"log_level"`

	CacheDriver string `mapstructure:"cache_driver"`
	CacheDSN    string `mapstructure:"cache_dsn"`

	PicturesDir   string        `mapstructure:"pictures_dir"`
	CameraCommand string        `mapstructure:"camera_command"`
	CameraTimeout time.Duration `mapstructure:"camera_timeout"`
	CameraGranted bool          `mapstructure:"camera_granted"`
	JPEGQuality   int           `mapstructure:"jpeg_quality"`
	MaxDimension  int           `mapstructure:"max_dimension"`
	EmojiFontPath string        `mapstructure:"emoji_font"`
	EmojiSize     int           `mapstructure:"emoji_size"`
}

// LoadClient reads profilectl.yaml from path (or the working directory and
// $HOME/.config/profilectl when path is empty), overlaid with PROFILECTL_*
// environment variables.
func LoadClient(path string) (*ClientConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("profilectl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/profilectl")
	}
	v.SetEnvPrefix("PROFILECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("timeout", "15s")
	v.SetDefault("log_level", "warn")
	v.SetDefault("cache_driver", "sqlite")
	v.SetDefault("cache_dsn", "profilectl.db")
	v.SetDefault("pictures_dir", "")
	v.SetDefault("camera_command", "")
	v.SetDefault("camera_timeout", "30s")
	v.SetDefault("camera_granted", false)
	v.SetDefault("jpeg_quality", 10)
	v.SetDefault("max_dimension", 512)
	v.SetDefault("emoji_font", "")
	v.SetDefault("emoji_size", 256)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read client config: %w", err)
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode client config: %w", err)
	}
	return &cfg, nil
}
