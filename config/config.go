// Package config loads bot configuration from the environment, with an
// optional config.env file in the user's config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/sardorm/telegram-elon-bot/flow"
)

const (
	AppName     = "telegram-elon-bot"
	EnvFileName = "config.env"
)

type Config struct {
	BotToken             string        `env:"BOT_TOKEN"`
	TargetChatID         string        `env:"TARGET_CHAT_ID"`
	IsChannel            bool          `env:"IS_CHANNEL" env-default:"true"`
	DatabasePath         string        `env:"DATABASE_PATH" env-default:"selling_bot.db"`
	DefaultLanguage      string        `env:"DEFAULT_LANGUAGE" env-default:"uz"`
	MaxMediaItems        int           `env:"MAX_MEDIA_ITEMS" env-default:"10"`
	MaxDescriptionLength int           `env:"MAX_DESCRIPTION_LENGTH" env-default:"1000"`
	ConversationTimeout  time.Duration `env:"CONVERSATION_TIMEOUT" env-default:"30m"`
	FeedWebhookURL       string        `env:"FEED_WEBHOOK_URL"`
}

// LoadEnvFile loads environment variables from the config file in the
// user's config directory. Errors are ignored since the file may not
// exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	LoadEnvFile()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading config from environment: %w", err)
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}
	if cfg.TargetChatID == "" {
		return nil, fmt.Errorf("TARGET_CHAT_ID is not set")
	}
	return cfg, nil
}

// FeedTarget parses TARGET_CHAT_ID into a chat target: either a numeric
// chat id or a public @channel username.
func (c *Config) FeedTarget() (flow.ChatTarget, error) {
	if strings.HasPrefix(c.TargetChatID, "@") {
		return flow.ChatTarget{Username: c.TargetChatID}, nil
	}
	id, err := strconv.ParseInt(c.TargetChatID, 10, 64)
	if err != nil {
		return flow.ChatTarget{}, fmt.Errorf("TARGET_CHAT_ID must be a numeric chat id or @channel username: %w", err)
	}
	return flow.ChatTarget{ID: id}, nil
}
