package storage

import (
	"context"
	"fmt"

	"github.com/better-wallet/linewallet/internal/kms"
	"github.com/better-wallet/linewallet/internal/validation"
	"github.com/better-wallet/linewallet/pkg/types"
)

// walletDocument is the stored form of a WalletRecord. The wallet payload is
// sealed by the configured KMS provider.
type walletDocument struct {
	InternalUserID     string             `json:"internal_user_id"`
	Wallet             types.SecureWallet `json:"wallet"`
	PasscodeCommitment string             `json:"passcode_commitment"`
	SealedBy           string             `json:"sealed_by"`
}

// WalletRepository handles wallet record documents keyed by internal user id
type WalletRepository struct {
	docs   DocumentStore
	sealer kms.Provider
}

// NewWalletRepository creates a new WalletRepository.
// A nil sealer stores payloads without an envelope.
func NewWalletRepository(docs DocumentStore, sealer kms.Provider) *WalletRepository {
	if sealer == nil {
		sealer = kms.NoneProvider{}
	}
	return &WalletRepository{docs: docs, sealer: sealer}
}

// Get retrieves the wallet record of an internal user. Returns nil, nil when absent.
func (r *WalletRepository) Get(ctx context.Context, internalUserID string) (*types.WalletRecord, error) {
	var doc walletDocument
	found, err := r.docs.Get(ctx, types.CollectionWalletRecords, internalUserID, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet record: %w", err)
	}
	if !found {
		return nil, nil
	}

	if err := r.checkDocument(&doc); err != nil {
		return nil, err
	}

	payload, err := r.sealer.Decrypt(ctx, doc.Wallet.EncryptedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeal, err)
	}

	rec := &types.WalletRecord{
		InternalUserID:     internalUserID,
		Wallet:             doc.Wallet,
		PasscodeCommitment: doc.PasscodeCommitment,
	}
	rec.Wallet.EncryptedPayload = payload

	return rec, nil
}

// Put creates or overwrites the wallet record
func (r *WalletRepository) Put(ctx context.Context, internalUserID string, wallet *types.SecureWallet, commitment string) error {
	doc, err := r.seal(ctx, internalUserID, wallet, commitment)
	if err != nil {
		return err
	}

	if err := r.docs.Set(ctx, types.CollectionWalletRecords, internalUserID, doc); err != nil {
		return fmt.Errorf("failed to put wallet record: %w", err)
	}
	return nil
}

// PutIfAbsent stores the wallet record unless one already exists.
// It reports whether this call wrote the record.
func (r *WalletRepository) PutIfAbsent(ctx context.Context, internalUserID string, wallet *types.SecureWallet, commitment string) (bool, error) {
	doc, err := r.seal(ctx, internalUserID, wallet, commitment)
	if err != nil {
		return false, err
	}

	created, err := r.docs.Create(ctx, types.CollectionWalletRecords, internalUserID, doc)
	if err != nil {
		return false, fmt.Errorf("failed to create wallet record: %w", err)
	}
	return created, nil
}

func (r *WalletRepository) seal(ctx context.Context, internalUserID string, wallet *types.SecureWallet, commitment string) (*walletDocument, error) {
	sealed, err := r.sealer.Encrypt(ctx, wallet.EncryptedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeal, err)
	}

	doc := &walletDocument{
		InternalUserID:     internalUserID,
		Wallet:             *wallet,
		PasscodeCommitment: commitment,
		SealedBy:           r.sealer.Provider(),
	}
	doc.Wallet.EncryptedPayload = sealed

	return doc, nil
}

func (r *WalletRepository) checkDocument(doc *walletDocument) error {
	if doc.SealedBy != r.sealer.Provider() {
		return fmt.Errorf("%w: wallet sealed by %q, configured provider is %q",
			ErrMalformedDocument, doc.SealedBy, r.sealer.Provider())
	}
	if err := validation.ValidateEthereumAddress(doc.Wallet.Address); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if len(doc.Wallet.EncryptedPayload) == 0 {
		return fmt.Errorf("%w: wallet without payload", ErrMalformedDocument)
	}
	if doc.PasscodeCommitment == "" {
		return fmt.Errorf("%w: wallet without passcode commitment", ErrMalformedDocument)
	}
	return nil
}
