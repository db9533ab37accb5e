package app

import (
	"context"
	"errors"
	"strings"
	"time"

	internalcrypto "github.com/better-wallet/linewallet/internal/crypto"
	"github.com/better-wallet/linewallet/internal/logger"
	"github.com/better-wallet/linewallet/internal/metrics"
	"github.com/better-wallet/linewallet/internal/storage"
	"github.com/better-wallet/linewallet/internal/validation"
	apperrors "github.com/better-wallet/linewallet/pkg/errors"
	"github.com/better-wallet/linewallet/pkg/types"
)

// Operation names used in metrics and logs
const (
	OpGetWallet      = "get_wallet"
	OpCreateWallet   = "create_wallet"
	OpVerifyPasscode = "verify_passcode"
)

// absentCommitment is compared against when no wallet exists, so a missing
// wallet costs the same as a wrong passcode.
var absentCommitment = "0x" + strings.Repeat("0", internalcrypto.DigestLength-2)

// WalletStore persists wallet records keyed by internal user id
type WalletStore interface {
	Get(ctx context.Context, internalUserID string) (*types.WalletRecord, error)
	PutIfAbsent(ctx context.Context, internalUserID string, wallet *types.SecureWallet, commitment string) (bool, error)
}

// WalletGenerator creates passcode-encrypted wallets
type WalletGenerator interface {
	Create(passcode string) (*types.SecureWallet, error)
}

// CustodyService exposes the wallet custody operations.
// It keeps no state between calls.
type CustodyService struct {
	linker    *IdentityLinker
	wallets   WalletStore
	generator WalletGenerator
	policy    validation.PasscodePolicy
	metrics   *metrics.Metrics
}

// NewCustodyService creates a new custody service
func NewCustodyService(
	linker *IdentityLinker,
	wallets WalletStore,
	generator WalletGenerator,
	policy validation.PasscodePolicy,
	m *metrics.Metrics,
) *CustodyService {
	return &CustodyService{
		linker:    linker,
		wallets:   wallets,
		generator: generator,
		policy:    policy,
		metrics:   m,
	}
}

// GetWallet returns the address of the user's wallet.
// It never creates a link or a wallet.
func (s *CustodyService) GetWallet(ctx context.Context, externalUserID string) (string, bool, error) {
	if err := validation.ValidateExternalUserID(externalUserID); err != nil {
		s.observe(OpGetWallet, metrics.OutcomeInvalidInput)
		return "", false, apperrors.InvalidInput(err.Error())
	}

	internalUserID, found, err := s.linker.Lookup(ctx, externalUserID)
	if err != nil {
		s.storeFailed(ctx, OpGetWallet, err)
		return "", false, err
	}
	if !found {
		s.observe(OpGetWallet, metrics.OutcomeAbsent)
		return "", false, nil
	}

	rec, err := s.wallets.Get(ctx, internalUserID)
	if err != nil {
		err = apperrors.StoreUnavailable(err)
		s.storeFailed(ctx, OpGetWallet, err)
		return "", false, err
	}
	if rec == nil {
		s.observe(OpGetWallet, metrics.OutcomeAbsent)
		return "", false, nil
	}

	s.observe(OpGetWallet, metrics.OutcomeOK)
	return rec.Wallet.Address, true, nil
}

// CreateWallet generates the user's wallet under passcode and returns its address.
// A user gets at most one wallet; later calls fail with AlreadyExists.
func (s *CustodyService) CreateWallet(ctx context.Context, externalUserID, passcode string) (string, error) {
	if err := validation.ValidateExternalUserID(externalUserID); err != nil {
		s.observe(OpCreateWallet, metrics.OutcomeInvalidInput)
		return "", apperrors.InvalidInput(err.Error())
	}
	if err := s.policy.Validate(passcode); err != nil {
		s.observe(OpCreateWallet, metrics.OutcomeInvalidInput)
		return "", apperrors.InvalidPasscode(err.Error())
	}

	internalUserID, err := s.linker.Resolve(ctx, externalUserID)
	if err != nil {
		s.storeFailed(ctx, OpCreateWallet, err)
		return "", err
	}

	existing, err := s.wallets.Get(ctx, internalUserID)
	if err != nil {
		err = apperrors.StoreUnavailable(err)
		s.storeFailed(ctx, OpCreateWallet, err)
		return "", err
	}
	if existing != nil {
		s.observe(OpCreateWallet, metrics.OutcomeAlreadyExists)
		logger.Info(ctx, "wallet already exists", "internal_user_id", internalUserID)
		return "", apperrors.AlreadyExists()
	}

	start := time.Now()
	wallet, err := s.generator.Create(passcode)
	s.metrics.ObserveGeneration(time.Since(start))
	if err != nil {
		s.observe(OpCreateWallet, metrics.OutcomeCryptoError)
		logger.Error(ctx, "wallet generation failed", "internal_user_id", internalUserID, "error", err)
		return "", apperrors.CryptoFailure(err)
	}

	commitment := internalcrypto.Digest(externalUserID, passcode)

	created, err := s.wallets.PutIfAbsent(ctx, internalUserID, wallet, commitment)
	if err != nil {
		if errors.Is(err, storage.ErrSeal) {
			s.observe(OpCreateWallet, metrics.OutcomeCryptoError)
			logger.Error(ctx, "sealing wallet failed", "internal_user_id", internalUserID, "error", err)
			return "", apperrors.CryptoFailure(err)
		}
		err = apperrors.StoreUnavailable(err)
		s.storeFailed(ctx, OpCreateWallet, err)
		return "", err
	}
	if !created {
		// Lost a race with a concurrent create. The generated wallet is dropped.
		s.observe(OpCreateWallet, metrics.OutcomeAlreadyExists)
		logger.Warn(ctx, "concurrent wallet creation lost", "internal_user_id", internalUserID)
		return "", apperrors.AlreadyExists()
	}

	s.observe(OpCreateWallet, metrics.OutcomeOK)
	logger.Info(ctx, "wallet created",
		"internal_user_id", internalUserID,
		"address", wallet.Address,
	)

	return wallet.Address, nil
}

// VerifyPasscode reports whether passcode is the one the user's wallet was
// created with. An unknown user and a wrong passcode both return false and
// take the same path through the store and the comparison.
func (s *CustodyService) VerifyPasscode(ctx context.Context, externalUserID, passcode string) (bool, error) {
	if err := validation.ValidateExternalUserID(externalUserID); err != nil {
		s.observe(OpVerifyPasscode, metrics.OutcomeInvalidInput)
		return false, apperrors.InvalidInput(err.Error())
	}
	if passcode == "" {
		s.observe(OpVerifyPasscode, metrics.OutcomeInvalidInput)
		return false, apperrors.InvalidInput("passcode is required")
	}

	candidate := internalcrypto.Digest(externalUserID, passcode)

	internalUserID, linked, err := s.linker.Lookup(ctx, externalUserID)
	if err != nil {
		s.storeFailed(ctx, OpVerifyPasscode, err)
		return false, err
	}
	if !linked {
		internalUserID = s.linker.Derive(externalUserID)
	}

	rec, err := s.wallets.Get(ctx, internalUserID)
	if err != nil {
		err = apperrors.StoreUnavailable(err)
		s.storeFailed(ctx, OpVerifyPasscode, err)
		return false, err
	}

	stored := absentCommitment
	if rec != nil {
		stored = rec.PasscodeCommitment
	}

	valid := internalcrypto.DigestEqual(stored, candidate) && linked && rec != nil

	if valid {
		s.observe(OpVerifyPasscode, metrics.OutcomeOK)
	} else {
		s.observe(OpVerifyPasscode, metrics.OutcomeMismatch)
	}
	return valid, nil
}

func (s *CustodyService) observe(operation, outcome string) {
	s.metrics.ObserveOperation(operation, outcome)
}

func (s *CustodyService) storeFailed(ctx context.Context, operation string, err error) {
	s.observe(operation, metrics.OutcomeStoreError)
	logger.Error(ctx, "store unavailable", "operation", operation, "error", err)
}
