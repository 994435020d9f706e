// Package config loads forge settings from a YAML file, FORGE_* environment
// variables and defaults, in increasing order of precedence for the file and env.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/forge/internal/runtime"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FORGE_SERVER_PORT.
const EnvPrefix = "FORGE"

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "forge.yaml"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Sandbox     SandboxConfig     `mapstructure:"sandbox"`
	Transcripts TranscriptsConfig `mapstructure:"transcripts"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File receives a JSON copy of every record when set.
	File string `mapstructure:"file"`
}

type EngineConfig struct {
	CompletionPolicy string `mapstructure:"completion_policy"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StoreConfig struct {
	Kind string `mapstructure:"kind"`
	Dir  string `mapstructure:"dir"`
	// EncryptionKey is a base64 AES-256 key; empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
	// Redact lists path patterns whose file contents are masked before saving.
	Redact []string `mapstructure:"redact"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type GeneratorConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SandboxConfig struct {
	Dir string `mapstructure:"dir"`
}

type TranscriptsConfig struct {
	// Dir is the Loam repository for generator transcripts; empty disables archiving.
	Dir string `mapstructure:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "warn"},
		Engine: EngineConfig{CompletionPolicy: string(runtime.PolicyPerStep)},
		Server: ServerConfig{Port: 8080},
		Store: StoreConfig{
			Kind: StoreMemory,
			Dir:  ".forge/sessions",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "forge:session:",
		},
		Generator: GeneratorConfig{
			URL:     "http://localhost:3000/api",
			Timeout: 2 * time.Minute,
		},
		Sandbox: SandboxConfig{Dir: ".forge/sandbox"},
	}
}

// SetDefaults registers every key with viper so env overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("engine.completion_policy", d.Engine.CompletionPolicy)

	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("store.kind", d.Store.Kind)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.encryption_key", d.Store.EncryptionKey)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("generator.url", d.Generator.URL)
	v.SetDefault("generator.timeout", d.Generator.Timeout)

	v.SetDefault("sandbox.dir", d.Sandbox.Dir)
	v.SetDefault("transcripts.dir", d.Transcripts.Dir)
}

// New returns a viper instance with defaults and env binding in place.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (or ./forge.yaml when path is empty and the file exists)
// into a validated Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("forge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if _, err := runtime.ParsePolicy(c.Engine.CompletionPolicy); err != nil {
		errs = append(errs, err)
	}
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis ttl must not be negative"))
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store redact pattern: %w", err))
		}
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator timeout must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Policy returns the configured completion policy.
func (c *Config) Policy() runtime.CompletionPolicy {
	p, _ := runtime.ParsePolicy(c.Engine.CompletionPolicy)
	return p
}
