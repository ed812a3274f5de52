// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the server's TOML configuration file, applying
// environment variable overrides and sane defaults the way qui does.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MCPSNOWFLAKE"

// SnowflakeConfig describes how to reach one Snowflake account.
type SnowflakeConfig struct {
	Account             string `toml:"account" mapstructure:"account"`
	User                string `toml:"user" mapstructure:"user"`
	Password            string `toml:"password" mapstructure:"password"`
	Role                string `toml:"role" mapstructure:"role"`
	Warehouse           string `toml:"warehouse" mapstructure:"warehouse"`
	Database            string `toml:"database" mapstructure:"database"`
	Schema              string `toml:"schema" mapstructure:"schema"`
	Authenticator       string `toml:"authenticator" mapstructure:"authenticator"`
	PrivateKeyPath      string `toml:"privateKeyPath" mapstructure:"privateKeyPath"`
	StoreTempCredential bool   `toml:"storeTempCredential" mapstructure:"storeTempCredential"`
	MaxOpenConns        int    `toml:"maxOpenConns" mapstructure:"maxOpenConns"`
}

// RegistryConfig tunes the async query registry. The commands read
// TTLMinutes, PruneIntervalSeconds and MaxConcurrentBlockingCalls.
// DefaultPollIntervalSeconds and DefaultMaxInlineRows are loaded but not
// read by anything: queries start from registry.DefaultQueryOptions unless
// the caller sets options. There is no setting that caps a query timeout.
type RegistryConfig struct {
	TTLMinutes                 int `toml:"ttlMinutes" mapstructure:"ttlMinutes"`
	DefaultPollIntervalSeconds int `toml:"defaultPollIntervalSeconds" mapstructure:"defaultPollIntervalSeconds"`
	DefaultMaxInlineRows       int `toml:"defaultMaxInlineRows" mapstructure:"defaultMaxInlineRows"`
	PruneIntervalSeconds       int `toml:"pruneIntervalSeconds" mapstructure:"pruneIntervalSeconds"`
	MaxConcurrentBlockingCalls int `toml:"maxConcurrentBlockingCalls" mapstructure:"maxConcurrentBlockingCalls"`
}

// Config is the full, unmarshaled application configuration.
type Config struct {
	Host     string `toml:"host" mapstructure:"host"`
	Port     int    `toml:"port" mapstructure:"port"`
	LogLevel string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath  string `toml:"logPath" mapstructure:"logPath"`

	MetricsEnabled bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost    string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort    int    `toml:"metricsPort" mapstructure:"metricsPort"`

	Snowflake SnowflakeConfig `toml:"snowflake" mapstructure:"snowflake"`
	Registry  RegistryConfig  `toml:"registry" mapstructure:"registry"`
}

// AppConfig wraps the parsed Config together with the viper instance that
// produced it, so callers can still ask about the config file's location.
type AppConfig struct {
	Config Config

	v    *viper.Viper
	path string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8585)
	v.SetDefault("logLevel", "INFO")

	v.SetDefault("metricsEnabled", false)
	v.SetDefault("metricsHost", "127.0.0.1")
	v.SetDefault("metricsPort", 9091)

	v.SetDefault("snowflake.account", "")
	v.SetDefault("snowflake.user", "")
	v.SetDefault("snowflake.password", "")
	v.SetDefault("snowflake.role", "")
	v.SetDefault("snowflake.warehouse", "")
	v.SetDefault("snowflake.database", "")
	v.SetDefault("snowflake.schema", "")
	v.SetDefault("snowflake.privateKeyPath", "")
	v.SetDefault("snowflake.authenticator", "snowflake")
	v.SetDefault("snowflake.storeTempCredential", true)
	v.SetDefault("snowflake.maxOpenConns", 8)

	v.SetDefault("registry.ttlMinutes", 1440)
	v.SetDefault("registry.defaultPollIntervalSeconds", 1)
	v.SetDefault("registry.defaultMaxInlineRows", 1000)
	v.SetDefault("registry.pruneIntervalSeconds", 60)
	v.SetDefault("registry.maxConcurrentBlockingCalls", 16)
}

// New reads configPath, generating it with the default values on first
// run, then applies MCPSNOWFLAKE_-prefixed environment variable overrides
// (e.g. MCPSNOWFLAKE_SNOWFLAKE_PASSWORD overrides snowflake.password).
func New(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeDefaultConfig(configPath); err != nil {
			return nil, errors.Wrap(err, "config: write default config")
		}
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "config: read config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal config")
	}

	return &AppConfig{Config: cfg, v: v, path: configPath}, nil
}

// Path returns the config file this AppConfig was loaded from.
func (a *AppConfig) Path() string {
	return a.path
}

const defaultConfigTemplate = `# config.toml - Auto-generated on first run
host = "127.0.0.1"
port = 8585

# Log level
# Default: "INFO"
# Options: "ERROR", "WARN", "INFO", "DEBUG", "TRACE"
logLevel = "INFO"
#logPath = "log/mcp-snowflake.log"

metricsEnabled = false
metricsHost = "127.0.0.1"
metricsPort = 9091

[snowflake]
account = ""
user = ""
password = ""
role = ""
warehouse = ""
database = ""
schema = ""
authenticator = "snowflake"
storeTempCredential = true
maxOpenConns = 8

[registry]
ttlMinutes = 1440
defaultPollIntervalSeconds = 1
defaultMaxInlineRows = 1000
pruneIntervalSeconds = 60
maxConcurrentBlockingCalls = 16
`

func writeDefaultConfig(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(defaultConfigTemplate), 0o644)
}
