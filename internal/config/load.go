package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. TASKPULSE_SERVER_PORT for server.port.
const EnvPrefix = "TASKPULSE"

var defaults = map[string]any{
	"server.port":                         8080,
	"server.log_level":                    "info",
	"server.shutdown_timeout_seconds":     10,
	"database.driver":                     DriverPostgres,
	"database.url":                        "",
	"database.mongo_database":             "taskpulse",
	"database.max_open_conns":             10,
	"auth.jwt_secret":                     "",
	"auth.token_lifetime_minutes":         60,
	"auth.refresh_token_lifetime_minutes": 10080,
	"auth.bcrypt_cost":                    10,
	"auth.password_reset_ttl_minutes":     10,
	"auth.password_reset_url":             "http://localhost:3000/auth/reset-password",
	"mail.transport":                      MailTransportLog,
	"mail.host":                           "",
	"mail.port":                           587,
	"mail.username":                       "",
	"mail.password":                       "",
	"mail.from":                           "no-reply@taskpulse.local",
	"mail.tls_policy":                     "opportunistic",
	"scheduler.enabled":                   true,
	"scheduler.interval_minutes":          1,
	"scheduler.run_on_start":              false,
	"scheduler.timeout_seconds":           50,
}

// Load reads configuration from, in increasing precedence: built-in defaults,
// a YAML file, and TASKPULSE_* environment variables. A .env file in the
// working directory is loaded into the environment first when present; it
// never overrides variables that are already set.
//
// configFile may be empty, in which case ./config.yaml is used if it exists.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
