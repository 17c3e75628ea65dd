package config

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/creasty/defaults"
	"github.com/forcegate/forcegate/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvProd = "production"
	EnvDev  = "development"
	EnvTest = "test"
)

// Session store backends
const (
	StoreMemory = "memory"
	StoreSQL    = "sql"
)

// Config holds gateway configuration loaded from environment variables or config file.
type Config struct {
	AppEnv   string `mapstructure:"app_env" default:"development" validate:"required,oneof=development test production"`
	Port     string `mapstructure:"port" default:"3000" validate:"required"`
	LogLevel string `default:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`

	// Session settings
	SessionSecret string `secret:"true" mapstructure:"session_secret" validate:"required"`
	SessionStore  string `mapstructure:"session_store" default:"memory" validate:"oneof=memory sql"`
	DatabaseURL   string `secret:"true" mapstructure:"database_url" validate:"required_if=SessionStore sql"`

	// Upstream OAuth settings
	OAuthClientID     string `mapstructure:"oauth_client_id" validate:"required"`
	OAuthClientSecret string `secret:"true" mapstructure:"oauth_client_secret" validate:"required"`
	OAuthRedirectURL  string `mapstructure:"oauth_redirect_url" validate:"required,url"`
	LoginURL          string `mapstructure:"login_url" default:"https://login.salesforce.com" validate:"required,url"`
	APIVersion        string `mapstructure:"api_version" default:"v59.0" validate:"required"`
}

// Load loads configuration from config file and environment variables using viper.
func Load() *Config {
	cfg := Config{}

	v := viper.New()
	v.AutomaticEnv()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))

	if err := defaults.Set(&cfg); err != nil {
		panic("failed to set struct defaults: " + err.Error())
	}

	// Bind env vars for each field
	typeOfCfg := reflect.TypeOf(cfg)
	for i := 0; i < typeOfCfg.NumField(); i++ {
		field := typeOfCfg.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" {
			key = toSnakeCase(field.Name)
		}
		v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Error("Error reading config file", "error", err)
		}
		logger.Warn("No config file found, using environment variables")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		logger.Warn("Could not unmarshal config", "error", err)
	}

	logger.Info("Loaded config", "config", cfg.String())

	return &cfg
}

// Validate checks the config against its struct validation tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}

// IsDev reports whether the gateway runs in a non-production environment.
// Session cookies are sent over plain transport in that case.
func (c *Config) IsDev() bool {
	return c.AppEnv != EnvProd
}

// String returns a string representation of the config with secret fields redacted.
func (c *Config) String() string {
	v := reflect.ValueOf(*c)
	t := reflect.TypeOf(*c)
	var sb strings.Builder
	sb.WriteString("Config{")
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		sb.WriteString(field.Name + ": ")
		if field.Tag.Get("secret") == "true" {
			sb.WriteString("***REDACTED***")
		} else {
			sb.WriteString(fmt.Sprintf("%v", v.Field(i).Interface()))
		}
		if i < t.NumField()-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// toSnakeCase converts CamelCase to snake_case
func toSnakeCase(str string) string {
	runes := []rune(str)
	var out []rune
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				out = append(out, '_')
			}
		}
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}
