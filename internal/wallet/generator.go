// Package wallet creates passcode-encrypted Ethereum wallets.
//
// Private keys are generated from crypto/rand and encrypted in the Web3 Secret
// Storage (keystore v3) format: scrypt derives the key-encryption key from the
// passcode, AES-128-CTR encrypts the key and a Keccak-256 MAC authenticates it.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/google/uuid"

	internalcrypto "github.com/better-wallet/linewallet/internal/crypto"
	"github.com/better-wallet/linewallet/pkg/types"
)

// SchemaVersion identifies the encryption scheme of SecureWallet payloads
const SchemaVersion = "keystore-v3-scrypt"

// KDF strengths
const (
	StrengthStandard = "standard"
	StrengthLight    = "light"
)

var (
	// ErrEmptyPasscode is returned when asked to encrypt under an empty passcode
	ErrEmptyPasscode = errors.New("passcode is empty")

	// ErrUnsupportedSchema is returned by Open for payloads of another scheme
	ErrUnsupportedSchema = errors.New("unsupported wallet schema version")

	// ErrAddressMismatch is returned by Open when the decrypted key does not
	// belong to the wallet address
	ErrAddressMismatch = errors.New("decrypted key does not match wallet address")
)

// Generator creates SecureWallets
type Generator struct {
	scryptN int
	scryptP int
	now     func() time.Time
}

// NewGenerator creates a generator for the given KDF strength
func NewGenerator(strength string) (*Generator, error) {
	g := &Generator{now: time.Now}

	switch strength {
	case StrengthStandard, "":
		g.scryptN, g.scryptP = keystore.StandardScryptN, keystore.StandardScryptP
	case StrengthLight:
		g.scryptN, g.scryptP = keystore.LightScryptN, keystore.LightScryptP
	default:
		return nil, fmt.Errorf("unsupported keystore strength: %s (supported: %s, %s)",
			strength, StrengthStandard, StrengthLight)
	}

	return g, nil
}

// Create generates a fresh key pair and encrypts it under passcode.
// The passcode never seeds key generation.
func (g *Generator) Create(passcode string) (*types.SecureWallet, error) {
	if passcode == "" {
		return nil, ErrEmptyPasscode
	}

	privateKey, err := internalcrypto.GenerateEthereumKey()
	if err != nil {
		return nil, err
	}
	defer internalcrypto.ZeroKey(privateKey)

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key id: %w", err)
	}

	address := internalcrypto.GetEthereumAddress(privateKey)

	payload, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    address,
		PrivateKey: privateKey,
	}, passcode, g.scryptN, g.scryptP)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt key: %w", err)
	}

	return &types.SecureWallet{
		SchemaVersion:    SchemaVersion,
		ChainType:        types.ChainTypeEthereum,
		Address:          internalcrypto.NormalizeAddress(address),
		EncryptedPayload: payload,
		CreatedAt:        g.now().UTC(),
	}, nil
}

// Open decrypts the wallet's private key with passcode.
// The caller owns the returned key and should clear it with crypto.ZeroKey.
func (g *Generator) Open(w *types.SecureWallet, passcode string) (*ecdsa.PrivateKey, error) {
	if w.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSchema, w.SchemaVersion)
	}

	key, err := keystore.DecryptKey(w.EncryptedPayload, passcode)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key: %w", err)
	}

	if internalcrypto.NormalizeAddress(key.Address) != w.Address {
		internalcrypto.ZeroKey(key.PrivateKey)
		return nil, ErrAddressMismatch
	}

	return key.PrivateKey, nil
}
