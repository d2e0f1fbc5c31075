package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string `validate:"required,oneof=development production test"`
	Port int    `validate:"required,min=1,max=65535"`

	Backend BackendConfig
	Console ConsoleConfig
	CORS    CORSConfig
	Log     LogConfig
}

// BackendConfig locates the students REST collaborator.
type BackendConfig struct {
	BaseURL   string `validate:"required,url"`
	APIPrefix string
	// Timeout of zero leaves outbound requests unbounded.
	Timeout time.Duration `validate:"min=0"`
}

// ConsoleConfig tunes the operator console behaviour.
type ConsoleConfig struct {
	MessageTTL  time.Duration `validate:"gt=0"`
	LoadOnStart bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string `validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Format string `validate:"omitempty,oneof=json console"`
}

// Endpoint joins the backend base URL and API prefix.
func (b BackendConfig) Endpoint() string {
	prefix := strings.Trim(b.APIPrefix, "/")
	base := strings.TrimRight(b.BaseURL, "/")
	if prefix == "" {
		return base
	}
	return base + "/" + prefix
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Backend = BackendConfig{
		BaseURL:   v.GetString("BACKEND_URL"),
		APIPrefix: v.GetString("BACKEND_API_PREFIX"),
		Timeout:   parseDuration(v.GetString("BACKEND_TIMEOUT"), 0),
	}

	cfg.Console = ConsoleConfig{
		MessageTTL:  parseDuration(v.GetString("MESSAGE_TTL"), 5*time.Second),
		LoadOnStart: v.GetBool("LOAD_ON_START"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded configuration against its struct constraints.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8081)

	v.SetDefault("BACKEND_URL", "http://localhost:8080")
	v.SetDefault("BACKEND_API_PREFIX", "/api/v1")
	v.SetDefault("BACKEND_TIMEOUT", "0s")

	v.SetDefault("MESSAGE_TTL", "5s")
	v.SetDefault("LOAD_ON_START", true)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
