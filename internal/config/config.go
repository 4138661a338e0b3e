package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3000
	defaultEnv        = "development"
	defaultSiteURL    = "https://news.starboard.to"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 5432
	defaultDBUser     = "postgres"
	defaultDBName     = "starboard_news"
	defaultSMTPHost   = "smtp.gmail.com"
	defaultSMTPPort   = 465
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	SiteURL        string         `yaml:"site_url"`
	CronSecret     string         `yaml:"cron_secret"`
	DSN            string         `yaml:"dsn"`
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Mail           MailConfig     `yaml:"mail"`
	AI             AIConfig       `yaml:"ai"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
}

// DatabaseConfig assembles a Postgres DSN when a full dsn string is not given.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// MailConfig holds the outbound email transport settings.
type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	ResendKey string `yaml:"resend_key"` // when set, send via the Resend API instead of SMTP
}

// AIConfig selects the content-generation provider.
type AIConfig struct {
	Type     string `yaml:"type"` // "anthropic" | "openai" | "openai-compatible"
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// SchedulerConfig controls the optional in-process cron jobs. Deployments
// that trigger /api/cron/* from an external scheduler leave this disabled.
type SchedulerConfig struct {
	Enable bool `yaml:"enable"`
}

// Load reads the YAML config file, applies environment overrides and
// defaults, and assembles the database DSN.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Config file is optional; environment variables may carry everything.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if cfg.DSN == "" {
		cfg.DSN = cfg.Database.DSN()
	}
	if _, err := url.Parse(cfg.SiteURL); err != nil {
		return nil, fmt.Errorf("invalid site_url %q: %w", cfg.SiteURL, err)
	}
	return cfg, nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.ToLower(strings.TrimSpace(c.Env)) != "production"
}

// DSN renders the Postgres connection string gorm expects.
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + d.Host,
		fmt.Sprintf("port=%d", d.Port),
		"user=" + d.User,
		"dbname=" + d.Name,
		"sslmode=" + sslMode,
	}
	if d.Password != "" {
		parts = append(parts, "password="+d.Password)
	}
	return strings.Join(parts, " ")
}

func applyEnvOverrides(cfg *AppConfig) {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Env, "NEWS_ENV")
	setString(&cfg.SiteURL, "SITE_URL")
	setString(&cfg.CronSecret, "CRON_SECRET")
	setString(&cfg.DSN, "DATABASE_DSN")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.Mail.User, "SMTP_USER")
	setString(&cfg.Mail.Pass, "SMTP_PASS")
	setString(&cfg.Mail.ResendKey, "RESEND_API_KEY")
	setString(&cfg.AI.APIKey, "AI_API_KEY")
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = defaultSiteURL
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = defaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = defaultDBUser
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = defaultDBName
	}
	if cfg.Mail.Host == "" {
		cfg.Mail.Host = defaultSMTPHost
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = defaultSMTPPort
	}
	if cfg.Mail.From == "" && cfg.Mail.User != "" {
		cfg.Mail.From = fmt.Sprintf("Starboard News <%s>", cfg.Mail.User)
	}
	if cfg.AI.Type == "" {
		cfg.AI.Type = "anthropic"
	}
}
