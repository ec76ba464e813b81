package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles はボット起動時に読み込む env ファイルです。先に読んだ値が優先されます。
var DefaultEnvFiles = []string{".env.local", ".env"}

// ErrMissingBotToken は BOT_TOKEN が設定されていない場合に返ります。
var ErrMissingBotToken = errors.New("config: BOT_TOKEN must be set")

// BotConfig は Telegram ボットの設定です。
type BotConfig struct {
	Token     string
	WebAppURL string
	Debug     bool
}

// LoadBot は env ファイルを読み込んだうえで環境変数からボットの設定を組み立てます。
// 存在しない env ファイルは無視します。既に設定されている環境変数は上書きしません。
func LoadBot(files ...string) (*BotConfig, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := &BotConfig{
		Token:     strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		WebAppURL: strings.TrimSpace(os.Getenv("WEBAPP_URL")),
	}
	if cfg.Token == "" {
		return nil, ErrMissingBotToken
	}

	if raw := os.Getenv("BOT_DEBUG"); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config: BOT_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}

	return cfg, nil
}
