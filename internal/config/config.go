package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	JWTSecret   string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	CORSAllowOrigins  string

	RealtimeChannel      string
	SocketSendBuffer     int
	SocketPingInterval   time.Duration
	SocketEventTimeout   time.Duration
	SSEKeepAliveInterval time.Duration

	NotificationTTL           time.Duration
	NotificationSweepInterval time.Duration
	UnreadCacheTTL            time.Duration
	ActivityWriteTimeout      time.Duration

	MessageRateLimit  int
	MessageRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ALUMNI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Alumni Connect API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("realtime.channel", "alumni:realtime")
	v.SetDefault("realtime.send_buffer", 64)
	v.SetDefault("realtime.ping_interval", "30s")
	v.SetDefault("realtime.event_timeout", "10s")
	v.SetDefault("realtime.sse_keepalive", "25s")
	v.SetDefault("notification.ttl", "720h")
	v.SetDefault("notification.sweep_interval", "1h")
	v.SetDefault("notification.unread_cache_ttl", "5m")
	v.SetDefault("activity.write_timeout", "5s")
	v.SetDefault("ratelimit.messages", 30)
	v.SetDefault("ratelimit.messages_window", "10s")

	durations := map[string]*time.Duration{}
	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		DBMaxOpenConns:   v.GetInt("database.max_open_conns"),
		DBMaxIdleConns:   v.GetInt("database.max_idle_conns"),
		CORSAllowOrigins: strings.TrimSpace(v.GetString("cors.allow_origins")),
		RealtimeChannel:  v.GetString("realtime.channel"),
		SocketSendBuffer: v.GetInt("realtime.send_buffer"),
		MessageRateLimit: v.GetInt("ratelimit.messages"),
	}
	durations["database.conn_max_lifetime"] = &cfg.DBConnMaxLifetime
	durations["realtime.ping_interval"] = &cfg.SocketPingInterval
	durations["realtime.event_timeout"] = &cfg.SocketEventTimeout
	durations["realtime.sse_keepalive"] = &cfg.SSEKeepAliveInterval
	durations["notification.ttl"] = &cfg.NotificationTTL
	durations["notification.sweep_interval"] = &cfg.NotificationSweepInterval
	durations["notification.unread_cache_ttl"] = &cfg.UnreadCacheTTL
	durations["activity.write_timeout"] = &cfg.ActivityWriteTimeout
	durations["ratelimit.messages_window"] = &cfg.MessageRateWindow

	for key, target := range durations {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		*target = parsed
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SocketSendBuffer <= 0 {
		cfg.SocketSendBuffer = 64
	}

	if cfg.DBMaxIdleConns > cfg.DBMaxOpenConns && cfg.DBMaxOpenConns > 0 {
		cfg.DBMaxIdleConns = cfg.DBMaxOpenConns
	}

	if cfg.CORSAllowOrigins == "" {
		cfg.CORSAllowOrigins = "*"
	}

	if cfg.MessageRateLimit <= 0 {
		cfg.MessageRateLimit = 30
	}

	return cfg, nil
}
