package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultNotifyChannel  = "collection_changed"
	defaultReconnectDelay = 3 * time.Second
	defaultRoleCacheTTL   = 5 * time.Minute
	defaultSessionTTL     = 24 * time.Hour
	defaultLogLevel       = "info"
)

// Config はダッシュボードサーバーの設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Feed     FeedConfig     `yaml:"feed"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig は gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// TimeZone は当日タスクの日付の区切りに使う IANA タイムゾーン名です。
	TimeZone string         `yaml:"time_zone"`
	Location *time.Location `yaml:"-"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// RedisConfig はロールキャッシュとセッションのロール切り替えに使う Redis の設定です。
// URL が空の場合は Redis を使いません。
type RedisConfig struct {
	URL             string        `yaml:"url"`
	RoleCacheTTL    time.Duration `yaml:"-"`
	SessionTTL      time.Duration `yaml:"-"`
	RoleCacheTTLRaw string        `yaml:"role_cache_ttl"`
	SessionTTLRaw   string        `yaml:"session_ttl"`
}

// Enabled は Redis の接続先が設定されているかを返します。
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// FeedConfig は変更通知の受信に関する設定です。
type FeedConfig struct {
	NotifyChannel     string        `yaml:"notify_channel"`
	ReconnectDelay    time.Duration `yaml:"-"`
	ReconnectDelayRaw string        `yaml:"reconnect_delay"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PathFromEnv は CONFIG_PATH 環境変数、なければ既定のパスを返します。
func PathFromEnv() string {
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Redis.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Feed.validateAndNormalize(); err != nil {
		return err
	}
	c.Log.normalize()
	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	if s.TimeZone == "" {
		s.TimeZone = "UTC"
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return fmt.Errorf("config: server.time_zone: %w", err)
	}
	s.Location = loc
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	var err error
	if d.ConnMaxLifetime, err = parseDurationOr(d.ConnMaxLifetimeRaw, 0); err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	if d.ConnMaxIdleTime, err = parseDurationOr(d.ConnMaxIdleTimeRaw, 0); err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	return nil
}

func (r *RedisConfig) validateAndNormalize() error {
	var err error
	if r.RoleCacheTTL, err = parseDurationOr(r.RoleCacheTTLRaw, defaultRoleCacheTTL); err != nil {
		return fmt.Errorf("config: redis.role_cache_ttl: %w", err)
	}
	if r.SessionTTL, err = parseDurationOr(r.SessionTTLRaw, defaultSessionTTL); err != nil {
		return fmt.Errorf("config: redis.session_ttl: %w", err)
	}
	return nil
}

func (f *FeedConfig) validateAndNormalize() error {
	if f.NotifyChannel == "" {
		f.NotifyChannel = defaultNotifyChannel
	}
	delay, err := parseDurationOr(f.ReconnectDelayRaw, defaultReconnectDelay)
	if err != nil {
		return fmt.Errorf("config: feed.reconnect_delay: %w", err)
	}
	if delay <= 0 {
		return fmt.Errorf("config: feed.reconnect_delay must be positive")
	}
	f.ReconnectDelay = delay
	return nil
}

func (l *LogConfig) normalize() {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
}

func parseDurationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

// DSN は pgx 用の接続文字列を返します。認証情報はエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
