package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration

	SessionPrefix string
	SessionTTL    time.Duration

	DatabaseDSN string

	AllowedOrigins []string

	APIKeyMaxAge   time.Duration
	APIKeyCacheTTL time.Duration

	RateLimitUserPerWindow   int
	RateLimitGlobalPerWindow int
	RateLimitWindow          time.Duration
	RateLimitMaxIdentities   int

	LogLevel string
	LogJSON  bool
	LogFile  string
}

// Load reads configuration from the environment (and a .env file when
// present). Every key maps to its upper-case env var, e.g. redis_addr is
// REDIS_ADDR.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_port", "8080")

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_dial_timeout", 2*time.Second)
	v.SetDefault("redis_read_timeout", time.Second)
	v.SetDefault("redis_write_timeout", time.Second)

	v.SetDefault("session_prefix", "session:")
	v.SetDefault("session_ttl", 24*time.Hour)

	v.SetDefault("database_dsn", "")

	v.SetDefault("allowed_origins", "*")

	v.SetDefault("api_key_max_age", 30*time.Minute)
	v.SetDefault("api_key_cache_ttl", time.Minute)

	v.SetDefault("rate_limit_user_per_window", 10)
	v.SetDefault("rate_limit_global_per_window", 100)
	v.SetDefault("rate_limit_window_ms", 60000)
	v.SetDefault("rate_limit_max_identities", 10000)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", true)
	v.SetDefault("log_file", "")
}

func fromViper(v *viper.Viper) Config {
	return Config{
		AppPort: v.GetString("app_port"),

		RedisAddr:         v.GetString("redis_addr"),
		RedisPassword:     v.GetString("redis_password"),
		RedisDB:           v.GetInt("redis_db"),
		RedisDialTimeout:  v.GetDuration("redis_dial_timeout"),
		RedisReadTimeout:  v.GetDuration("redis_read_timeout"),
		RedisWriteTimeout: v.GetDuration("redis_write_timeout"),

		SessionPrefix: v.GetString("session_prefix"),
		SessionTTL:    v.GetDuration("session_ttl"),

		DatabaseDSN: v.GetString("database_dsn"),

		AllowedOrigins: splitList(v.GetString("allowed_origins")),

		APIKeyMaxAge:   v.GetDuration("api_key_max_age"),
		APIKeyCacheTTL: v.GetDuration("api_key_cache_ttl"),

		RateLimitUserPerWindow:   v.GetInt("rate_limit_user_per_window"),
		RateLimitGlobalPerWindow: v.GetInt("rate_limit_global_per_window"),
		RateLimitWindow:          time.Duration(v.GetInt64("rate_limit_window_ms")) * time.Millisecond,
		RateLimitMaxIdentities:   v.GetInt("rate_limit_max_identities"),

		LogLevel: v.GetString("log_level"),
		LogJSON:  v.GetBool("log_json"),
		LogFile:  v.GetString("log_file"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
