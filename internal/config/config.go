package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Mail      MailConfig      `mapstructure:"mail"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MailConfig holds the Resend credentials and the business mail identity.
// The two forms use separate API keys, matching the provider setup.
type MailConfig struct {
	ContactAPIKey string        `mapstructure:"contact_api_key"`
	EnrollAPIKey  string        `mapstructure:"enroll_api_key"`
	ContactFrom   string        `mapstructure:"contact_from"`
	EnrollFrom    string        `mapstructure:"enroll_from"`
	StudentFrom   string        `mapstructure:"student_from"`
	OwnerTo       string        `mapstructure:"owner_to"`
	SupportEmail  string        `mapstructure:"support_email"`
	WhatsApp      string        `mapstructure:"whatsapp"`
	SiteName      string        `mapstructure:"site_name"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type RateLimitConfig struct {
	Contact RateLimitRule `mapstructure:"contact"`
	Enroll  RateLimitRule `mapstructure:"enroll"`
}

type RateLimitRule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type AdminConfig struct {
	// APIKey guards /admin routes. Empty disables them.
	APIKey string `mapstructure:"api_key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(path string) (*Config, error) {
	// Local development keeps secrets in a .env file; missing is fine.
	_ = godotenv.Load()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("formgate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/formgate")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("FORMGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)

	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./data/formgate.db")

	viper.SetDefault("mail.contact_from", "German mit Harsh <noreply@germanmitharsh.com>")
	viper.SetDefault("mail.enroll_from", "German mit Harsh <enroll@germanmitharsh.com>")
	viper.SetDefault("mail.student_from", "Harsh - German mit Harsh <harsh@germanmitharsh.com>")
	viper.SetDefault("mail.owner_to", "support@germanmitharsh.com")
	viper.SetDefault("mail.support_email", "support@germanmitharsh.com")
	viper.SetDefault("mail.whatsapp", "https://wa.me/4915511330861")
	viper.SetDefault("mail.site_name", "German mit Harsh")
	viper.SetDefault("mail.timeout", 15*time.Second)
	viper.SetDefault("mail.retry_delay", 1*time.Second)

	viper.SetDefault("rate_limit.contact.limit", 5)
	viper.SetDefault("rate_limit.contact.window", time.Hour)
	viper.SetDefault("rate_limit.enroll.limit", 3)
	viper.SetDefault("rate_limit.enroll.window", 24*time.Hour)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
