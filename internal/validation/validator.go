package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

// EthereumAddressPattern is the regex pattern for Ethereum addresses
var EthereumAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// MaxExternalUserIDLength bounds external user ids; they are only lookup keys
const MaxExternalUserIDLength = 256

// Passcode policy defaults
const (
	DefaultMinPasscodeLength = 4
	DefaultMaxPasscodeLength = 128
)

// ValidateEthereumAddress validates an Ethereum address format
func ValidateEthereumAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if !EthereumAddressPattern.MatchString(address) {
		return fmt.Errorf("invalid Ethereum address format: must be 0x followed by 40 hex characters")
	}

	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid Ethereum address")
	}

	if strings.ToLower(address) == "0x0000000000000000000000000000000000000000" {
		return fmt.Errorf("zero address is not a wallet address")
	}

	return nil
}

// ValidateExternalUserID validates an identifier supplied by the identity provider.
// Its charset is not trusted, so only structural checks are applied.
func ValidateExternalUserID(id string) error {
	if id == "" {
		return fmt.Errorf("user id is required")
	}

	if len(id) > MaxExternalUserIDLength {
		return fmt.Errorf("user id too long: maximum %d bytes", MaxExternalUserIDLength)
	}

	if !utf8.ValidString(id) {
		return fmt.Errorf("user id must be valid UTF-8")
	}

	if strings.TrimSpace(id) != id {
		return fmt.Errorf("user id must not have leading or trailing whitespace")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("user id must not contain control characters")
		}
	}

	return nil
}

// PasscodePolicy is the minimum-strength policy applied before wallet creation
type PasscodePolicy struct {
	MinLength int
	MaxLength int
}

// DefaultPasscodePolicy returns the default policy
func DefaultPasscodePolicy() PasscodePolicy {
	return PasscodePolicy{
		MinLength: DefaultMinPasscodeLength,
		MaxLength: DefaultMaxPasscodeLength,
	}
}

// Validate checks a passcode against the policy.
// Length is counted in characters, not bytes.
func (p PasscodePolicy) Validate(passcode string) error {
	if passcode == "" {
		return fmt.Errorf("passcode is required")
	}

	if !utf8.ValidString(passcode) {
		return fmt.Errorf("passcode must be valid UTF-8")
	}

	n := utf8.RuneCountInString(passcode)
	if n < p.MinLength {
		return fmt.Errorf("passcode too short: minimum %d characters", p.MinLength)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return fmt.Errorf("passcode too long: maximum %d characters", p.MaxLength)
	}

	return nil
}
