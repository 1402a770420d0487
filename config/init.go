package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"lander/internal/guard"
)

// RuleConfig — переопределение лимита для семейства маршрутов.
type RuleConfig struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

// Конечная структура конфигурации приложения.
type Config struct {
	App struct {
		Env string `mapstructure:"env"` // development|dev|local|test — dev-режим, иначе production
	} `mapstructure:"app"`

	Server struct {
		Address         string        `mapstructure:"address"`   // 0.0.0.0
		HTTPPort        string        `mapstructure:"http_port"` // 8080
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Admin struct {
		Secret string `mapstructure:"secret"` // пусто — админка закрыта вне dev
	} `mapstructure:"admin"`

	Logging struct {
		Level  string `mapstructure:"level"`  // trace|debug|info|warning|error|fatal
		Format string `mapstructure:"format"` // text|json
		File   string `mapstructure:"file"`   // путь файла, пусто — только stdout
	} `mapstructure:"logs"`

	Database struct {
		Driver string `mapstructure:"driver"` // "postgres" | "mysql" | "sqlite" | "" (in-memory)
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	RateLimit struct {
		Backend       string                `mapstructure:"backend"` // memory|redis
		RedisAddr     string                `mapstructure:"redis_addr"`
		RedisPassword string                `mapstructure:"redis_password"`
		RedisDB       int                   `mapstructure:"redis_db"`
		HighWater     int                   `mapstructure:"high_water"`
		Rules         map[string]RuleConfig `mapstructure:"rules"`
	} `mapstructure:"ratelimit"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// DevMode — подробные ошибки и открытая админка без секрета.
func (c *Config) DevMode() bool {
	switch strings.ToLower(strings.TrimSpace(c.App.Env)) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// GuardRules — правила по умолчанию с переопределениями из конфига.
func (c *Config) GuardRules() map[string]guard.Rule {
	rules := guard.DefaultRules()
	for name, rc := range c.RateLimit.Rules {
		name = strings.ToLower(name)
		r, ok := rules[name]
		if !ok {
			r = guard.Rule{Name: name}
		}
		if rc.Max > 0 {
			r.Max = rc.Max
		}
		if rc.Window > 0 {
			r.Window = rc.Window
		}
		rules[name] = r
	}
	return rules
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("admin.secret", "")

	v.SetDefault("logs.level", "info")
	v.SetDefault("logs.format", "text")
	v.SetDefault("logs.file", "")

	// DB: по умолчанию — in-memory (пустой driver)
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.redis_addr", "")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("ratelimit.high_water", 10000)
	// ключи правил объявлены явно, иначе AutomaticEnv их не увидит
	for name, r := range guard.DefaultRules() {
		v.SetDefault("ratelimit.rules."+name+".max", r.Max)
		v.SetDefault("ratelimit.rules."+name+".window", r.Window)
	}

	v.SetDefault("metrics.enabled", true)
}

// Load читает конфиг из .env, env и файла с дефолтами.
func Load() (*Config, error) {
	// .env не обязателен; уже выставленные переменные не перезаписываются
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "lander"))
		}
		v.AddConfigPath("/etc/lander")
	}

	// Чтение файла (опционально)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	switch c.Database.Driver {
	case "", "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.Driver != "" && strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn must be set when database.driver is set")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.RateLimit.RedisAddr) == "" {
			return errors.New("ratelimit.redis_addr must be set for the redis backend")
		}
	default:
		return fmt.Errorf("ratelimit.backend %q is not supported (memory|redis)", c.RateLimit.Backend)
	}
	if c.RateLimit.HighWater <= 0 {
		return errors.New("ratelimit.high_water must be positive")
	}
	for name, r := range c.RateLimit.Rules {
		if r.Max <= 0 || r.Window <= 0 {
			return fmt.Errorf("ratelimit.rules.%s: max and window must be positive", name)
		}
	}
	return nil
}
