// Package kms seals wallet payloads at rest with a key management service.
//
// The passcode-encrypted keystore is the primary protection of a wallet. A
// Provider adds an envelope on top so a copy of the document store alone is not
// enough to start an offline passcode search.
package kms

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awskms "github.com/aws/aws-sdk-go-v2/service/kms"
	vault "github.com/hashicorp/vault/api"
)

// Provider encrypts and decrypts opaque blobs
type Provider interface {
	// Encrypt encrypts data using the KMS
	Encrypt(ctx context.Context, data []byte) ([]byte, error)

	// Decrypt decrypts data using the KMS
	Decrypt(ctx context.Context, encryptedData []byte) ([]byte, error)

	// Provider returns the provider name (e.g., "local", "aws-kms", "vault")
	Provider() string
}

// ProviderType represents supported KMS providers
type ProviderType string

const (
	// ProviderNone stores payloads as produced by the wallet generator
	ProviderNone ProviderType = "none"

	// ProviderLocal uses a local master key with AES-256-GCM
	ProviderLocal ProviderType = "local"

	// ProviderAWSKMS uses AWS KMS
	ProviderAWSKMS ProviderType = "aws-kms"

	// ProviderVault uses the HashiCorp Vault Transit engine
	ProviderVault ProviderType = "vault"
)

// Config contains configuration for KMS providers
type Config struct {
	Provider string

	// Local provider config: 32 bytes, hex encoded
	LocalMasterKeyHex string

	// AWS KMS config
	AWSKeyID  string
	AWSRegion string

	// Vault config
	VaultAddress    string
	VaultToken      string
	VaultTransitKey string
}

// NoneProvider passes data through unchanged
type NoneProvider struct{}

// Encrypt returns a copy of data
func (NoneProvider) Encrypt(_ context.Context, data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// Decrypt returns a copy of data
func (NoneProvider) Decrypt(_ context.Context, encryptedData []byte) ([]byte, error) {
	return append([]byte(nil), encryptedData...), nil
}

// Provider returns the provider name
func (NoneProvider) Provider() string {
	return string(ProviderNone)
}

// LocalProvider implements Provider using a local master key with AES-GCM.
// Suitable for development or simple self-hosted deployments.
type LocalProvider struct {
	aead cipher.AEAD
}

// NewLocalProvider creates a new local KMS provider
func NewLocalProvider(masterKeyHex string) (*LocalProvider, error) {
	if masterKeyHex == "" {
		return nil, fmt.Errorf("master key is required for local KMS provider")
	}

	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("master key must be hex encoded: %w", err)
	}
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(masterKey))
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &LocalProvider{aead: gcm}, nil
}

// Encrypt encrypts data using AES-GCM; the nonce is prepended to the ciphertext
func (p *LocalProvider) Encrypt(_ context.Context, data []byte) ([]byte, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return p.aead.Seal(nonce, nonce, data, nil), nil
}

// Decrypt decrypts data using AES-GCM
func (p *LocalProvider) Decrypt(_ context.Context, encryptedData []byte) ([]byte, error) {
	nonceSize := p.aead.NonceSize()
	if len(encryptedData) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := encryptedData[:nonceSize], encryptedData[nonceSize:]
	plaintext, err := p.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// Provider returns the provider name
func (p *LocalProvider) Provider() string {
	return string(ProviderLocal)
}

// AWSProvider implements Provider using AWS KMS
type AWSProvider struct {
	keyID  string
	client *awskms.Client
}

// NewAWSProvider creates a new AWS KMS provider.
// Credentials come from the default chain: env vars, shared config, IAM role.
func NewAWSProvider(ctx context.Context, keyID, region string) (*AWSProvider, error) {
	if keyID == "" {
		return nil, fmt.Errorf("AWS KMS key ID is required")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS region is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSProvider{
		keyID:  keyID,
		client: awskms.NewFromConfig(cfg),
	}, nil
}

// Encrypt encrypts data using AWS KMS
func (p *AWSProvider) Encrypt(ctx context.Context, data []byte) ([]byte, error) {
	output, err := p.client.Encrypt(ctx, &awskms.EncryptInput{
		KeyId:     aws.String(p.keyID),
		Plaintext: data,
	})
	if err != nil {
		return nil, fmt.Errorf("AWS KMS encrypt failed: %w", err)
	}
	return output.CiphertextBlob, nil
}

// Decrypt decrypts data using AWS KMS
func (p *AWSProvider) Decrypt(ctx context.Context, encryptedData []byte) ([]byte, error) {
	output, err := p.client.Decrypt(ctx, &awskms.DecryptInput{
		KeyId:          aws.String(p.keyID),
		CiphertextBlob: encryptedData,
	})
	if err != nil {
		return nil, fmt.Errorf("AWS KMS decrypt failed: %w", err)
	}
	return output.Plaintext, nil
}

// Provider returns the provider name
func (p *AWSProvider) Provider() string {
	return string(ProviderAWSKMS)
}

// VaultProvider implements Provider using HashiCorp Vault Transit engine
type VaultProvider struct {
	transitKey string
	client     *vault.Client
}

// NewVaultProvider creates a new Vault provider
func NewVaultProvider(address, token, transitKey string) (*VaultProvider, error) {
	if address == "" {
		return nil, fmt.Errorf("Vault address is required")
	}
	if token == "" {
		return nil, fmt.Errorf("Vault token is required")
	}
	if transitKey == "" {
		return nil, fmt.Errorf("Vault transit key name is required")
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	client.SetToken(token)

	return &VaultProvider{
		transitKey: transitKey,
		client:     client,
	}, nil
}

// Encrypt encrypts data using Vault Transit engine
func (p *VaultProvider) Encrypt(ctx context.Context, data []byte) ([]byte, error) {
	// Transit takes base64 plaintext
	plaintext := base64.StdEncoding.EncodeToString(data)

	path := fmt.Sprintf("transit/encrypt/%s", p.transitKey)
	secret, err := p.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"plaintext": plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("vault transit encrypt failed: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault transit encrypt returned empty response")
	}

	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok {
		return nil, fmt.Errorf("vault transit encrypt: ciphertext not found in response")
	}

	// vault:v1:... string
	return []byte(ciphertext), nil
}

// Decrypt decrypts data using Vault Transit engine
func (p *VaultProvider) Decrypt(ctx context.Context, encryptedData []byte) ([]byte, error) {
	path := fmt.Sprintf("transit/decrypt/%s", p.transitKey)
	secret, err := p.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"ciphertext": string(encryptedData),
	})
	if err != nil {
		return nil, fmt.Errorf("vault transit decrypt failed: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault transit decrypt returned empty response")
	}

	plaintextB64, ok := secret.Data["plaintext"].(string)
	if !ok {
		return nil, fmt.Errorf("vault transit decrypt: plaintext not found in response")
	}

	plaintext, err := base64.StdEncoding.DecodeString(plaintextB64)
	if err != nil {
		return nil, fmt.Errorf("vault transit decrypt: failed to decode plaintext: %w", err)
	}

	return plaintext, nil
}

// Provider returns the provider name
func (p *VaultProvider) Provider() string {
	return string(ProviderVault)
}

// NewProvider creates a Provider based on the configuration
func NewProvider(ctx context.Context, cfg *Config) (Provider, error) {
	provider := ProviderType(cfg.Provider)

	switch provider {
	case ProviderNone, "":
		return NoneProvider{}, nil

	case ProviderLocal:
		return NewLocalProvider(cfg.LocalMasterKeyHex)

	case ProviderAWSKMS:
		return NewAWSProvider(ctx, cfg.AWSKeyID, cfg.AWSRegion)

	case ProviderVault:
		return NewVaultProvider(cfg.VaultAddress, cfg.VaultToken, cfg.VaultTransitKey)

	default:
		return nil, fmt.Errorf("unsupported KMS provider: %s (supported: %s, %s, %s, %s)",
			provider, ProviderNone, ProviderLocal, ProviderAWSKMS, ProviderVault)
	}
}

var (
	_ Provider = NoneProvider{}
	_ Provider = (*LocalProvider)(nil)
	_ Provider = (*AWSProvider)(nil)
	_ Provider = (*VaultProvider)(nil)
)
