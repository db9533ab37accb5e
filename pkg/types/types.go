package types

import "time"

// ChainType constants
const (
	ChainTypeEthereum = "ethereum"
)

// Document collections
const (
	CollectionIdentityLinks = "identity_links"
	CollectionWalletRecords = "wallet_records"
)

// IdentityLink maps an external user identifier to the internal user identifier.
// It is written at most once per external identifier and never mutated.
type IdentityLink struct {
	ExternalUserID string    `json:"external_user_id"`
	InternalUserID string    `json:"internal_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// SecureWallet is a public address plus the passcode-encrypted private key.
// It is immutable once created.
type SecureWallet struct {
	SchemaVersion    string    `json:"schema_version"`
	ChainType        string    `json:"chain_type"`
	Address          string    `json:"address"`
	EncryptedPayload []byte    `json:"encrypted_payload"`
	CreatedAt        time.Time `json:"created_at"`
}

// WalletRecord is the persisted wallet of one internal user
type WalletRecord struct {
	InternalUserID     string       `json:"internal_user_id"`
	Wallet             SecureWallet `json:"wallet"`
	PasscodeCommitment string       `json:"passcode_commitment"`
}
