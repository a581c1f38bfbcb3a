package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/witanlabs/marksheet/internal/report"
)

const envPrefix = "MARKSHEET"

type Config struct {
	AbsentMarker   string        `mapstructure:"absent_marker" validate:"required"`
	WrapWidth      int           `mapstructure:"wrap_width" validate:"gte=1"`
	SeparatorWidth int           `mapstructure:"separator_width" validate:"gte=0"`
	Precision      int           `mapstructure:"precision" validate:"gte=0,lte=10"`
	Border         string        `mapstructure:"border"`
	TextAlign      string        `mapstructure:"text_align" validate:"oneof=left center right"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn error off"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gte=100ms"`
}

// Style returns the report style described by the config.
func (c Config) Style() report.Style {
	s := report.DefaultStyle()
	s.Border = c.Border
	s.TextAlign = c.TextAlign
	s.Precision = c.Precision
	s.WrapWidth = c.WrapWidth
	s.SeparatorWidth = c.SeparatorWidth
	return s
}

func dir() (string, error) {
	if v := os.Getenv("MARKSHEET_CONFIG_DIR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "marksheet"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "marksheet"), nil
}

func filePath() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	s := report.DefaultStyle()
	v.SetDefault("absent_marker", "ABS")
	v.SetDefault("wrap_width", s.WrapWidth)
	v.SetDefault("separator_width", s.SeparatorWidth)
	v.SetDefault("precision", s.Precision)
	v.SetDefault("border", s.Border)
	v.SetDefault("text_align", s.TextAlign)
	v.SetDefault("log_level", "warn")
	v.SetDefault("poll_interval", 2*time.Second)
}

// Load builds the config from defaults, the optional config.yaml, a .env file
// in the working directory and MARKSHEET_* environment variables, in
// increasing order of precedence.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	p, err := filePath()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(p); err == nil {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", p, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.TextAlign = strings.ToLower(cfg.TextAlign)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
