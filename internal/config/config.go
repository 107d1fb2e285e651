package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultHorizonDays = 56
	defaultRefresh     = "@daily"
	defaultSQLitePath  = "workoutlog.db"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig selects the store. The sqlite driver uses Path; postgres
// uses the connection fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// SchedulerConfig controls planned-workout generation. Refresh is a cron
// spec for regenerating the window of every active program.
type SchedulerConfig struct {
	HorizonDays int    `yaml:"horizon_days"`
	Refresh     string `yaml:"refresh"`
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return "file:" + d.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix WORKOUTLOG_ and underscore-separated paths:
//
//	WORKOUTLOG_SERVER_HOST, WORKOUTLOG_SERVER_PORT,
//	WORKOUTLOG_DB_DRIVER, WORKOUTLOG_DB_PATH,
//	WORKOUTLOG_DB_HOST, WORKOUTLOG_DB_PORT, WORKOUTLOG_DB_NAME,
//	WORKOUTLOG_DB_USER, WORKOUTLOG_DB_PASSWORD, WORKOUTLOG_DB_SSLMODE,
//	WORKOUTLOG_AUTH_API_KEY,
//	WORKOUTLOG_TAILSCALE_ENABLED, WORKOUTLOG_TAILSCALE_HOSTNAME,
//	WORKOUTLOG_SCHEDULER_HORIZON_DAYS, WORKOUTLOG_SCHEDULER_REFRESH
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("WORKOUTLOG_SERVER_HOST", &cfg.Server.Host)
	num("WORKOUTLOG_SERVER_PORT", &cfg.Server.Port)
	str("WORKOUTLOG_DB_DRIVER", &cfg.Database.Driver)
	str("WORKOUTLOG_DB_PATH", &cfg.Database.Path)
	str("WORKOUTLOG_DB_HOST", &cfg.Database.Host)
	num("WORKOUTLOG_DB_PORT", &cfg.Database.Port)
	str("WORKOUTLOG_DB_NAME", &cfg.Database.Name)
	str("WORKOUTLOG_DB_USER", &cfg.Database.User)
	str("WORKOUTLOG_DB_PASSWORD", &cfg.Database.Password)
	str("WORKOUTLOG_DB_SSLMODE", &cfg.Database.SSLMode)
	str("WORKOUTLOG_AUTH_API_KEY", &cfg.Auth.APIKey)
	if v := os.Getenv("WORKOUTLOG_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	str("WORKOUTLOG_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	num("WORKOUTLOG_SCHEDULER_HORIZON_DAYS", &cfg.Scheduler.HorizonDays)
	str("WORKOUTLOG_SCHEDULER_REFRESH", &cfg.Scheduler.Refresh)
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = defaultSQLitePath
	}
	if c.Scheduler.HorizonDays == 0 {
		c.Scheduler.HorizonDays = defaultHorizonDays
	}
	if c.Scheduler.Refresh == "" {
		c.Scheduler.Refresh = defaultRefresh
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "workoutlog"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Scheduler.HorizonDays < 1 {
		return fmt.Errorf("scheduler.horizon_days must be at least 1")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return nil
}
