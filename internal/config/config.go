// Package config provides Viper-based configuration loading for combatd.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output lists zap sink URLs or paths. Empty means stderr.
	Output []string `mapstructure:"output"`
}

// CombatConfig holds the pulse clock and the rules the engine runs.
type CombatConfig struct {
	// PulseInterval is the wall-clock length of one pulse.
	PulseInterval time.Duration `mapstructure:"pulse_interval"`
	// PulsesPerTick is the number of pulses between affect ticks.
	// 0 derives it from the ruleset's violence pulse.
	PulsesPerTick int `mapstructure:"pulses_per_tick"`
	// RulesFile is a YAML or TOML ruleset. Empty uses the built-in rules.
	RulesFile string `mapstructure:"rules_file"`
	// AttacksFile is a YAML attack table. Empty uses the built-in table.
	AttacksFile string `mapstructure:"attacks_file"`
	// Seed fixes the dice source for reproducible runs. 0 uses crypto/rand.
	Seed uint64 `mapstructure:"seed"`
}

// ContentConfig locates the YAML content directories.
type ContentConfig struct {
	Zones   string `mapstructure:"zones"`
	NPCs    string `mapstructure:"npcs"`
	Items   string `mapstructure:"items"`
	Affects string `mapstructure:"affects"`
	Classes string `mapstructure:"classes"`
	// Scripts holds global Lua hooks shared by every zone. Empty = none.
	Scripts string `mapstructure:"scripts"`
	// ScriptInstructionLimit bounds each global hook call. 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// MessagingConfig holds NATS settings.
type MessagingConfig struct {
	// Embedded starts an in-process NATS server and connects to it.
	Embedded bool `mapstructure:"embedded"`
	// URL is the server to connect to when Embedded is false.
	URL string `mapstructure:"url"`
	// Host and Port are the embedded server's listen address.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Prefix is the first token of every published subject.
	Prefix string `mapstructure:"prefix"`
}

// PersistenceConfig controls saving player combatants.
type PersistenceConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Combat      CombatConfig      `mapstructure:"combat"`
	Content     ContentConfig     `mapstructure:"content"`
	Messaging   MessagingConfig   `mapstructure:"messaging"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	// The database is only dialled when persistence is on.
	if c.Persistence.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMessaging(c.Messaging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePersistence(c.Persistence); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.PulseInterval <= 0 {
		errs = append(errs, fmt.Sprintf("combat.pulse_interval must be > 0, got %s", c.PulseInterval))
	}
	if c.PulsesPerTick < 0 {
		errs = append(errs, fmt.Sprintf("combat.pulses_per_tick must be >= 0, got %d", c.PulsesPerTick))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.Zones == "" {
		return errors.New("content.zones must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		return fmt.Errorf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit)
	}
	return nil
}

func validateMessaging(m MessagingConfig) error {
	var errs []string
	if m.Embedded {
		// -1 asks the embedded server for a free port.
		if m.Port != -1 && (m.Port < 1 || m.Port > 65535) {
			errs = append(errs, fmt.Sprintf("messaging.port must be 1-65535 or -1, got %d", m.Port))
		}
	} else if m.URL == "" {
		errs = append(errs, "messaging.url must not be empty unless messaging.embedded is set")
	}
	if m.Prefix == "" || strings.ContainsAny(m.Prefix, " *>") {
		errs = append(errs, fmt.Sprintf("messaging.prefix must be a non-empty subject token, got %q", m.Prefix))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePersistence(p PersistenceConfig) error {
	if p.Enabled && p.AutosaveInterval <= 0 {
		return fmt.Errorf("persistence.autosave_interval must be > 0 when enabled, got %s", p.AutosaveInterval)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MUD_ prefix
	v.SetEnvPrefix("MUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mud")
	v.SetDefault("database.password", "mud")
	v.SetDefault("database.name", "mud")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("combat.pulse_interval", "250ms")
	v.SetDefault("combat.pulses_per_tick", 0)

	v.SetDefault("content.zones", "content/zones")
	v.SetDefault("content.npcs", "content/npcs")
	v.SetDefault("content.items", "content/items")
	v.SetDefault("content.affects", "content/affects")

	v.SetDefault("messaging.embedded", true)
	v.SetDefault("messaging.host", "127.0.0.1")
	v.SetDefault("messaging.port", 4222)
	v.SetDefault("messaging.prefix", "mud")

	v.SetDefault("persistence.enabled", false)
	v.SetDefault("persistence.autosave_interval", "5m")
}
