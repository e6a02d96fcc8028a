// Package config loads and validates the bot configuration from a YAML file,
// a .env file and BOT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every error returned by LoadConfig.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. BOT_TELEGRAM_TOKEN for telegram.token.
const EnvPrefix = "BOT"

// Config is the complete application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	AI        AIConfig        `mapstructure:"ai"`
	Image     ImageConfig     `mapstructure:"image"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig selects the log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and message limits.
type TelegramConfig struct {
	Token              string `mapstructure:"token"                validate:"required"`
	DropPendingUpdates bool   `mapstructure:"drop_pending_updates"`
	MaxMessageLength   int    `mapstructure:"max_message_length"   validate:"min=1,max=4096"`
}

// AIConfig configures the completion gateway. Tuning values apply to every request.
type AIConfig struct {
	APIKey           string        `mapstructure:"api_key"           validate:"required"`
	BaseURL          string        `mapstructure:"base_url"          validate:"required,url"`
	Model            string        `mapstructure:"model"             validate:"required"`
	Temperature      float64       `mapstructure:"temperature"       validate:"min=0,max=2"`
	MaxTokens        int           `mapstructure:"max_tokens"        validate:"min=1,max=8192"`
	TopP             float64       `mapstructure:"top_p"             validate:"min=0,max=1"`
	FrequencyPenalty float64       `mapstructure:"frequency_penalty" validate:"min=-2,max=2"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"   validate:"min=1s,max=10s"`
	Timeout          time.Duration `mapstructure:"timeout"           validate:"min=1s,max=45s"`
	Retry            RetryConfig   `mapstructure:"retry"`
}

// RetryConfig configures retries of transport failures.
type RetryConfig struct {
	Attempts   uint          `mapstructure:"attempts"   validate:"min=1,max=10"`
	Multiplier time.Duration `mapstructure:"multiplier" validate:"min=0"`
	MinWait    time.Duration `mapstructure:"min_wait"   validate:"min=0"`
	MaxWait    time.Duration `mapstructure:"max_wait"   validate:"gtefield=MinWait"`
}

// ImageConfig selects the image generation provider used by /image.
type ImageConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=disabled openai gemini"`
	APIKey   string `mapstructure:"api_key"  validate:"required_unless=Provider disabled"`
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
	Model    string `mapstructure:"model"`
	Size     string `mapstructure:"size"`
}

// DatabaseConfig configures the transcript store.
type DatabaseConfig struct {
	Path      string        `mapstructure:"path"      validate:"required"`
	Retention time.Duration `mapstructure:"retention" validate:"min=0"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule (with seconds field).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// HTTPConfig configures the admin HTTP server. An empty ListenAddr disables it.
type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// MessagesConfig holds every user-visible text.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"           validate:"required"`
	MenuPlaceholder  string `mapstructure:"menu_placeholder"  validate:"required"`
	ChatModeEnabled  string `mapstructure:"chat_mode_enabled" validate:"required"`
	ChooseFromMenu   string `mapstructure:"choose_from_menu"  validate:"required"`
	Cancelled        string `mapstructure:"cancelled"         validate:"required"`
	InvalidLength    string `mapstructure:"invalid_length"    validate:"required"`
	GeneralError     string `mapstructure:"general_error"     validate:"required"`
	BotInfo          string `mapstructure:"bot_info"          validate:"required"`
	Tools            string `mapstructure:"tools"             validate:"required"`
	Help             string `mapstructure:"help"              validate:"required"`
	Settings         string `mapstructure:"settings"          validate:"required"`
	Stats            string `mapstructure:"stats"             validate:"required"`
	RateLimit        string `mapstructure:"rate_limit"        validate:"required"`
	Timeout          string `mapstructure:"timeout"           validate:"required"`
	SystemError      string `mapstructure:"system_error"      validate:"required,contains=%s"`
	Unexpected       string `mapstructure:"unexpected"        validate:"required"`
	ImageUsage       string `mapstructure:"image_usage"       validate:"required"`
	ImageUnavailable string `mapstructure:"image_unavailable" validate:"required"`
	ImageFailed      string `mapstructure:"image_failed"      validate:"required"`
}

// LoadConfig reads configuration from path, a .env file in the working
// directory and BOT_* environment variables, applies defaults and validates
// the result. A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env file: %v", ErrConfiguration, err)
	}

	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	slog.Debug("Configuration loaded",
		"path", path,
		"ai_base_url", cfg.AI.BaseURL,
		"ai_model", cfg.AI.Model,
		"image_provider", cfg.Image.Provider,
		"db_path", cfg.Database.Path)
	return cfg, nil
}

// Default returns the built-in configuration without reading files or the
// environment. The result is not validated; secrets are empty.
func Default() *Config {
	cfg := &Config{}
	if err := newViper().Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("invalid built-in defaults: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	return v
}
