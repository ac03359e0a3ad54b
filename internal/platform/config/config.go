package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode           string        `mapstructure:"mode"`
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	Cors           CorsConfig    `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Debug    bool           `mapstructure:"debug"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置，Address 为空时不启用Redis
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig 定义了活跃会话缓存的容量与过期时间
type SessionConfig struct {
	MaxEntries int           `mapstructure:"maxEntries"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 定义了限流配置
type RateLimitConfig struct {
	Login LimitConfig `mapstructure:"login"`
}

// LimitConfig 是一个滑动窗口限流规则
type LimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// LogConfig 定义了日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// setDefaults 为所有配置项设置默认值，配置文件缺失时也能启动
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.requestTimeout", 10*time.Second)
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", DriverSqlite)
	v.SetDefault("database.debug", false)
	v.SetDefault("database.sqlite.path", "peer_review.db")
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("session.maxEntries", 10000)
	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("ratelimit.login.limit", 10)
	v.SetDefault("ratelimit.login.window", 15*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// loadDotEnvs 按优先级加载 .env 文件，已存在的环境变量不会被覆盖
func loadDotEnvs(dir string) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	_ = godotenv.Load(dir + ".env." + env + ".local")
	_ = godotenv.Load(dir + ".env.local")
	_ = godotenv.Load(dir + ".env." + env)
	_ = godotenv.Load(dir + ".env")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在 ./config 和当前目录中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	return load("./config", ".")
}

func load(paths ...string) (*Config, error) {
	loadDotEnvs("")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:8888
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}

// Validate 检查配置的合法性
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("不支持的运行模式: %q", c.Server.Mode)
	}
	switch c.Database.Driver {
	case DriverSqlite:
		if c.Database.Sqlite.Path == "" {
			return errors.New("database.sqlite.path 不能为空")
		}
	case DriverPostgres:
		if c.Database.Postgres.DSN == "" {
			return errors.New("使用postgres时必须配置 database.postgres.dsn")
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.Session.MaxEntries <= 0 {
		return errors.New("session.maxEntries 必须为正数")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl 必须为正数")
	}
	if c.RateLimit.Login.Limit < 0 {
		return errors.New("ratelimit.login.limit 不能为负数")
	}
	return nil
}
