package config

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	SelectorRoundRobin = "round-robin"
	SelectorRandom     = "random"
)

type NodeConfig struct {
	URL string `mapstructure:"url"`
}

type SelectorConfig struct {
	Type string `mapstructure:"type"`
}

type TransportConfig struct {
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryStatuses  []int  `mapstructure:"retry_statuses"`
	RequestTimeout string `mapstructure:"request_timeout"`
}

type RevivalConfig struct {
	BaseDelay string `mapstructure:"base_delay"`
	MaxDelay  string `mapstructure:"max_delay"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Trace       bool   `mapstructure:"trace"`
	Environment string `mapstructure:"environment"`
}

type Config struct {
	Nodes     []NodeConfig    `mapstructure:"nodes"`
	Selector  SelectorConfig  `mapstructure:"selector"`
	Transport TransportConfig `mapstructure:"transport"`
	Revival   RevivalConfig   `mapstructure:"revival"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

func Load() (*Config, error) {
	viper.SetDefault("selector.type", SelectorRoundRobin)
	viper.SetDefault("transport.max_retries", 0)
	viper.SetDefault("transport.retry_statuses", []int{502, 503, 504})
	viper.SetDefault("transport.request_timeout", "10s")
	viper.SetDefault("revival.base_delay", "5s")
	viper.SetDefault("revival.max_delay", "60s")
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("logging.trace", false)
	viper.SetDefault("logging.environment", EnvDev)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Error("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Nodes,
			validation.Required,
			validation.Length(1, 0),
			validation.Each(validation.By(validateNodeConfig)),
		),
		validation.Field(&c.Selector,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(SelectorConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a SelectorConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Type,
						validation.Required,
						validation.In(SelectorRoundRobin, SelectorRandom),
					),
				)
			}),
		),
		validation.Field(&c.Transport,
			validation.Required,
			validation.By(func(value interface{}) error {
				tc, ok := value.(TransportConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a TransportConfig")
				}
				return validation.ValidateStruct(&tc,
					validation.Field(&tc.MaxRetries,
						validation.Min(0),
					),
					validation.Field(&tc.RetryStatuses,
						validation.Each(validation.Min(100), validation.Max(599)),
					),
					validation.Field(&tc.RequestTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Revival,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RevivalConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RevivalConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.BaseDelay,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&rc.MaxDelay,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
					validation.Field(&lc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
				)
			}),
		),
	)
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateNodeConfig(value interface{}) error {
	node, ok := value.(NodeConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a NodeConfig")
	}

	if node.URL == "" {
		return validation.NewError("validation_empty_url", "node URL cannot be empty")
	}

	parsedURL, err := url.Parse(node.URL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
