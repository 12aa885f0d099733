// Package config provides configuration loading, validation, and management
// for the stepbot application. It handles reading from YAML files,
// environment variable overrides, and validating configuration parameters.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// TaskConfig holds scheduling options for a single named task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Config defines the application configuration for all components of the
// stepbot system: logging, the Telegram transport, the AI integration, the
// database, and every user-facing message template.
type Config struct {
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json"`

	BotToken       string `mapstructure:"bot_token"        validate:"required"`
	OperatorChatID int64  `mapstructure:"operator_chat_id" validate:"required"`

	// AIToken may be empty: the bot runs without AI help and reports a
	// fixed configuration message when help is requested.
	AIBackend     string        `mapstructure:"ai_backend"     validate:"oneof=openai gemini"`
	AIToken       string        `mapstructure:"ai_token"`
	AIBaseURL     string        `mapstructure:"ai_base_url"    validate:"url"`
	AIModel       string        `mapstructure:"ai_model"       validate:"required"`
	AITemperature float32       `mapstructure:"ai_temperature" validate:"min=0,max=2"`
	AITimeout     time.Duration `mapstructure:"ai_timeout"     validate:"min=1s,max=10m"`

	DBPath string `mapstructure:"db_path" validate:"required"`

	DefaultCategoryID int64 `mapstructure:"default_category_id"`

	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	Messages Messages `mapstructure:"messages"`
}

// Load reads configuration in three layers: built-in defaults, an optional
// config.yaml in the working directory, and BOT_* environment variables.
// The merged result is validated before being returned.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults plus env cover everything.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
