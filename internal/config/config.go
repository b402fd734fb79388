// Package config provides Viper-based configuration loading for the rolling game server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout bounds the graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

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
}

// FightConfig holds the tunable constants of a fight round.
type FightConfig struct {
	ActionPointCost         float64 `mapstructure:"action_point_cost"`
	TirednessIncrease       float64 `mapstructure:"tiredness_increase"`
	ExhaustedAbove          float64 `mapstructure:"exhausted_above"`
	MinimumLifePoints       float64 `mapstructure:"minimum_life_points"`
	SkillIncrement          float64 `mapstructure:"skill_increment"`
	EvadeSkill              string  `mapstructure:"evade_skill"`
	EvadeStartProbability   float64 `mapstructure:"evade_start_probability"`
	EvadeMultiplier         float64 `mapstructure:"evade_multiplier"`
	EvadeMaximumProbability float64 `mapstructure:"evade_maximum_probability"`
}

// ContentConfig locates the game content loaded at startup.
type ContentConfig struct {
	// StuffDir holds the YAML stuff property files.
	StuffDir string `mapstructure:"stuff_dir"`
	// ScriptsDir holds the Lua fight modifier scripts. Empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// Seed makes fight randomness reproducible when non-zero.
	Seed int64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Fight    FightConfig    `mapstructure:"fight"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateFight(c.Fight); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.StuffDir == "" {
		errs = append(errs, "content.stuff_dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must not be negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

func validateFight(f FightConfig) error {
	var errs []string
	if f.ActionPointCost <= 0 {
		errs = append(errs, fmt.Sprintf("fight.action_point_cost must be > 0, got %g", f.ActionPointCost))
	}
	if f.TirednessIncrease < 0 {
		errs = append(errs, fmt.Sprintf("fight.tiredness_increase must be >= 0, got %g", f.TirednessIncrease))
	}
	if f.ExhaustedAbove <= 0 {
		errs = append(errs, fmt.Sprintf("fight.exhausted_above must be > 0, got %g", f.ExhaustedAbove))
	}
	if f.SkillIncrement < 0 {
		errs = append(errs, fmt.Sprintf("fight.skill_increment must be >= 0, got %g", f.SkillIncrement))
	}
	if f.EvadeSkill == "" {
		errs = append(errs, "fight.evade_skill must not be empty")
	}
	if f.EvadeMaximumProbability < 0 || f.EvadeMaximumProbability > 100 {
		errs = append(errs, fmt.Sprintf("fight.evade_maximum_probability must be 0-100, got %g", f.EvadeMaximumProbability))
	}
	if f.EvadeStartProbability > f.EvadeMaximumProbability {
		errs = append(errs, "fight.evade_start_probability must not exceed fight.evade_maximum_probability")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

	// Environment variable overrides with ROLLING_ prefix
	v.SetEnvPrefix("ROLLING")
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
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rolling")
	v.SetDefault("database.password", "rolling")
	v.SetDefault("database.name", "rolling")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("fight.action_point_cost", 2.0)
	v.SetDefault("fight.tiredness_increase", 35.0)
	v.SetDefault("fight.exhausted_above", 85.0)
	v.SetDefault("fight.minimum_life_points", 1.0)
	v.SetDefault("fight.skill_increment", 1.0)
	v.SetDefault("fight.evade_skill", "agility")
	v.SetDefault("fight.evade_start_probability", 50.0)
	v.SetDefault("fight.evade_multiplier", 6.0)
	v.SetDefault("fight.evade_maximum_probability", 90.0)

	v.SetDefault("content.stuff_dir", "content/stuff")
	v.SetDefault("content.scripts_dir", "content/scripts")
}
