package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/better-wallet/linewallet/internal/kms"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Store:    StoreConfig{Backend: "memory"},
		Seal:     SealConfig{Provider: "none"},
		Keystore: KeystoreConfig{Strength: "standard"},
		Passcode: PasscodeConfig{MinLength: 4, MaxLength: 128},
		Log:      LogConfig{Format: "json", Level: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid memory config",
			mutate: func(*Config) {},
		},
		{
			name: "valid postgres config",
			mutate: func(c *Config) {
				c.Store.Backend = "postgres"
				c.Store.PostgresDSN = "postgres://localhost:5432/test"
			},
		},
		{
			name: "valid redis config",
			mutate: func(c *Config) {
				c.Store.Backend = "redis"
				c.Store.RedisAddr = "localhost:6379"
			},
		},
		{
			name: "valid local seal",
			mutate: func(c *Config) {
				c.Seal.Provider = "local"
				c.Seal.LocalMasterKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
			},
		},
		{
			name: "valid aws seal",
			mutate: func(c *Config) {
				c.Seal.Provider = "aws-kms"
				c.Seal.AWSKeyID = "alias/linewallet"
				c.Seal.AWSRegion = "ap-northeast-1"
			},
		},
		{
			name: "valid vault seal",
			mutate: func(c *Config) {
				c.Seal.Provider = "vault"
				c.Seal.VaultAddress = "http://localhost:8200"
				c.Seal.VaultToken = "s.token123"
				c.Seal.VaultTransitKey = "linewallet"
			},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
			errMsg:  "server.port",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "firestore" },
			wantErr: true,
			errMsg:  "store.backend must be",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Store.Backend = "postgres" },
			wantErr: true,
			errMsg:  "store.postgres_dsn is required",
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Store.Backend = "redis"
				c.Store.RedisAddr = ""
			},
			wantErr: true,
			errMsg:  "store.redis_addr is required",
		},
		{
			name:    "local seal without key",
			mutate:  func(c *Config) { c.Seal.Provider = "local" },
			wantErr: true,
			errMsg:  "seal.local_master_key is required",
		},
		{
			name:    "aws seal without key id",
			mutate:  func(c *Config) { c.Seal.Provider = "aws-kms" },
			wantErr: true,
			errMsg:  "seal.aws_key_id is required",
		},
		{
			name: "vault seal without token",
			mutate: func(c *Config) {
				c.Seal.Provider = "vault"
				c.Seal.VaultAddress = "http://localhost:8200"
				c.Seal.VaultTransitKey = "linewallet"
			},
			wantErr: true,
			errMsg:  "seal.vault_address, seal.vault_token and seal.vault_transit_key are required",
		},
		{
			name:    "unknown seal provider",
			mutate:  func(c *Config) { c.Seal.Provider = "hsm" },
			wantErr: true,
			errMsg:  "seal.provider must be",
		},
		{
			name:    "unknown keystore strength",
			mutate:  func(c *Config) { c.Keystore.Strength = "paranoid" },
			wantErr: true,
			errMsg:  "keystore.strength must be",
		},
		{
			name:    "zero min length",
			mutate:  func(c *Config) { c.Passcode.MinLength = 0 },
			wantErr: true,
			errMsg:  "passcode.min_length must be at least 1",
		},
		{
			name:    "max below min",
			mutate:  func(c *Config) { c.Passcode.MaxLength = 2 },
			wantErr: true,
			errMsg:  "passcode.max_length (2) must not be below passcode.min_length (4)",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errMsg:  "log.format must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "none", cfg.Seal.Provider)
	assert.Equal(t, "standard", cfg.Keystore.Strength)
	assert.Equal(t, 4, cfg.Passcode.MinLength)
	assert.Equal(t, 128, cfg.Passcode.MaxLength)
	assert.Empty(t, cfg.Auth.CallerSecretHash)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("STORE_REDIS_ADDR", "cache:6379")
	t.Setenv("STORE_REDIS_DB", "2")
	t.Setenv("KEYSTORE_STRENGTH", "light")
	t.Setenv("PASSCODE_MIN_LENGTH", "6")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.Equal(t, "light", cfg.Keystore.Strength)
	assert.Equal(t, 6, cfg.Passcode.MinLength)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linewallet.yaml")
	content := `
store:
  backend: postgres
  postgres_dsn: postgres://wallet@db:5432/linewallet
seal:
  provider: local
  local_master_key: 0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef
log:
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://wallet@db:5432/linewallet", cfg.Store.PostgresDSN)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)

	kc := cfg.Seal.KMS()
	assert.Equal(t, string(kms.ProviderLocal), kc.Provider)
	assert.Equal(t, cfg.Seal.LocalMasterKey, kc.LocalMasterKeyHex)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "reading config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")

		_, err := Load("")
		assert.ErrorContains(t, err, "invalid configuration")
	})
}
