package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Push     PushConfig     `mapstructure:"push"`
	Auth     AuthConfig     `mapstructure:"auth"`
	RTC      RTCConfig      `mapstructure:"rtc"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	GRPCPort          int           `mapstructure:"grpc_port" validate:"gt=0"`
	HTTPPort          int           `mapstructure:"http_port" validate:"gt=0"`
	ReflectionEnabled bool          `mapstructure:"reflection_enabled"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=postgres firestore"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type FirebaseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type NATSConfig struct {
	URL         string `mapstructure:"url" validate:"required"`
	Name        string `mapstructure:"name"`
	Subject     string `mapstructure:"subject" validate:"required"`
	Queue       string `mapstructure:"queue"`
	MaxInFlight int    `mapstructure:"max_in_flight" validate:"gte=0"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type PushConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=fcm log"`
}

type AuthConfig struct {
	Provider  string `mapstructure:"provider" validate:"oneof=jwt firebase"`
	JWTSecret string `mapstructure:"jwt_secret" validate:"required_if=Provider jwt"`
	Issuer    string `mapstructure:"issuer"`
}

// RTCConfig holds the media service signing secrets. They come from the
// environment (RTC_APP_ID, RTC_APP_CERTIFICATE) and have no defaults.
type RTCConfig struct {
	AppID          string `mapstructure:"app_id" validate:"required"`
	AppCertificate string `mapstructure:"app_certificate" validate:"required"`
}

// UsesFirebase reports whether any component needs a Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.Database.Driver == "firestore" || c.Push.Provider == "fcm" || c.Auth.Provider == "firebase"
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	v.BindEnv("server.grpc_port", "GRPC_PORT")
	v.BindEnv("server.http_port", "PORT")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	v.BindEnv("rtc.app_id", "RTC_APP_ID")
	v.BindEnv("rtc.app_certificate", "RTC_APP_CERTIFICATE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.grpc_port", 50056)
	v.SetDefault("server.http_port", 8086)
	v.SetDefault("server.reflection_enabled", false)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "metachat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.credentials_file", "")
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.name", "notification-service")
	v.SetDefault("nats.subject", "documents.created")
	v.SetDefault("nats.queue", "notification-service")
	v.SetDefault("nats.max_in_flight", 64)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "notification:user")
	v.SetDefault("redis.token_ttl", "5m")
	v.SetDefault("push.provider", "fcm")
	v.SetDefault("auth.provider", "firebase")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("rtc.app_id", "")
	v.SetDefault("rtc.app_certificate", "")
}
