package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the storefront backend.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Frontend FrontendConfig `mapstructure:"frontend"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT    JWTSettings    `mapstructure:"jwt"`
	Admin  AdminSettings  `mapstructure:"admin"`
	Google GoogleSettings `mapstructure:"google"`
}

// JWTSettings configures customer session tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// AdminSettings supplies the back-office identity and its token secret. The
// password is stored as a bcrypt hash, never in the clear.
type AdminSettings struct {
	Email        string        `mapstructure:"email"`
	PasswordHash string        `mapstructure:"password_hash"`
	Secret       string        `mapstructure:"secret"`
	TTL          time.Duration `mapstructure:"access_token_ttl"`
}

// GoogleSettings configures Google sign-in verification.
type GoogleSettings struct {
	ClientID string `mapstructure:"client_id"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StorageConfig locates uploaded product images on disk.
type StorageConfig struct {
	ImagesDir  string `mapstructure:"images_dir"`
	PublicBase string `mapstructure:"public_base"`
}

// FrontendConfig points at the customer-facing site, used to build links in
// outbound email.
type FrontendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate reports configuration the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
		return errors.New("config: auth.jwt.secret is required")
	}
	if strings.TrimSpace(c.Auth.Admin.Secret) == "" {
		return errors.New("config: auth.admin.secret is required")
	}
	if c.Auth.Admin.Secret == c.Auth.JWT.Secret {
		return errors.New("config: auth.admin.secret must differ from auth.jwt.secret")
	}
	if strings.TrimSpace(c.Auth.Admin.Email) == "" {
		return errors.New("config: auth.admin.email is required")
	}
	if strings.TrimSpace(c.Auth.Admin.PasswordHash) == "" {
		return errors.New("config: auth.admin.password_hash is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/storefront.sqlite")

	v.SetDefault("auth.jwt.issuer", "storefront")
	v.SetDefault("auth.jwt.access_token_ttl", "24h")
	v.SetDefault("auth.admin.access_token_ttl", "12h")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("storage.images_dir", "./data/images")
	v.SetDefault("storage.public_base", "assets/images")

	v.SetDefault("frontend.base_url", "http://localhost:3000")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
