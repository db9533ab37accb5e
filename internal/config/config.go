package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/better-wallet/linewallet/internal/kms"
)

// Config holds the service configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Seal     SealConfig     `mapstructure:"seal"`
	Keystore KeystoreConfig `mapstructure:"keystore"`
	Passcode PasscodeConfig `mapstructure:"passcode"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Backend       string `mapstructure:"backend"` // memory, postgres, redis
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// SealConfig selects the at-rest envelope applied to wallet payloads
type SealConfig struct {
	Provider        string `mapstructure:"provider"` // none, local, aws-kms, vault
	LocalMasterKey  string `mapstructure:"local_master_key"`
	AWSKeyID        string `mapstructure:"aws_key_id"`
	AWSRegion       string `mapstructure:"aws_region"`
	VaultAddress    string `mapstructure:"vault_address"`
	VaultToken      string `mapstructure:"vault_token"`
	VaultTransitKey string `mapstructure:"vault_transit_key"`
}

// KMS converts the seal settings into a kms.Config
func (s SealConfig) KMS() *kms.Config {
	return &kms.Config{
		Provider:          s.Provider,
		LocalMasterKeyHex: s.LocalMasterKey,
		AWSKeyID:          s.AWSKeyID,
		AWSRegion:         s.AWSRegion,
		VaultAddress:      s.VaultAddress,
		VaultToken:        s.VaultToken,
		VaultTransitKey:   s.VaultTransitKey,
	}
}

type KeystoreConfig struct {
	Strength string `mapstructure:"strength"` // standard, light
}

type PasscodeConfig struct {
	MinLength int `mapstructure:"min_length"`
	MaxLength int `mapstructure:"max_length"`
}

// AuthConfig controls caller authentication.
// An empty hash disables the check.
type AuthConfig struct {
	CallerSecretHash string `mapstructure:"caller_secret_hash"`
}

type LogConfig struct {
	Format string `mapstructure:"format"` // json, text
	Level  string `mapstructure:"level"`  // debug, info, warn, error
}

// Load reads configuration from an optional file and environment variables.
// Environment variables override file values. Nested keys use underscore
// with no prefix: STORE_BACKEND, SEAL_PROVIDER, PASSCODE_MIN_LENGTH, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("seal.provider", "none")
	v.SetDefault("seal.local_master_key", "")
	v.SetDefault("seal.aws_key_id", "")
	v.SetDefault("seal.aws_region", "")
	v.SetDefault("seal.vault_address", "")
	v.SetDefault("seal.vault_token", "")
	v.SetDefault("seal.vault_transit_key", "")
	v.SetDefault("keystore.strength", "standard")
	v.SetDefault("passcode.min_length", 4)
	v.SetDefault("passcode.max_length", 128)
	v.SetDefault("auth.caller_secret_hash", "")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required when store.backend is 'postgres'")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required when store.backend is 'redis'")
		}
	default:
		return fmt.Errorf("store.backend must be 'memory', 'postgres' or 'redis', got: %s", c.Store.Backend)
	}

	switch kms.ProviderType(c.Seal.Provider) {
	case kms.ProviderNone:
	case kms.ProviderLocal:
		if c.Seal.LocalMasterKey == "" {
			return fmt.Errorf("seal.local_master_key is required when seal.provider is 'local'")
		}
	case kms.ProviderAWSKMS:
		if c.Seal.AWSKeyID == "" {
			return fmt.Errorf("seal.aws_key_id is required when seal.provider is 'aws-kms'")
		}
	case kms.ProviderVault:
		if c.Seal.VaultAddress == "" || c.Seal.VaultToken == "" || c.Seal.VaultTransitKey == "" {
			return fmt.Errorf("seal.vault_address, seal.vault_token and seal.vault_transit_key are required when seal.provider is 'vault'")
		}
	default:
		return fmt.Errorf("seal.provider must be 'none', 'local', 'aws-kms' or 'vault', got: %s", c.Seal.Provider)
	}

	if c.Keystore.Strength != "standard" && c.Keystore.Strength != "light" {
		return fmt.Errorf("keystore.strength must be 'standard' or 'light', got: %s", c.Keystore.Strength)
	}

	if c.Passcode.MinLength < 1 {
		return fmt.Errorf("passcode.min_length must be at least 1, got: %d", c.Passcode.MinLength)
	}
	if c.Passcode.MaxLength < c.Passcode.MinLength {
		return fmt.Errorf("passcode.max_length (%d) must not be below passcode.min_length (%d)",
			c.Passcode.MaxLength, c.Passcode.MinLength)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be 'json' or 'text', got: %s", c.Log.Format)
	}

	return nil
}
