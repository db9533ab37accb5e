package middleware

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/better-wallet/linewallet/pkg/errors"
)

// CallerSecretHeader carries the shared secret of the trusted caller
const CallerSecretHeader = "X-Caller-Secret"

// CallerAuth authenticates the trusted caller that forwards end-user requests.
// External user ids are taken from request bodies as-is, so only that caller
// may reach the user routes.
type CallerAuth struct {
	secretHash []byte
}

// NewCallerAuth creates the middleware from a bcrypt hash of the caller secret.
// An empty hash disables authentication.
func NewCallerAuth(secretHash string) (*CallerAuth, error) {
	if secretHash == "" {
		return &CallerAuth{}, nil
	}
	if _, err := bcrypt.Cost([]byte(secretHash)); err != nil {
		return nil, fmt.Errorf("invalid caller secret hash: %w", err)
	}
	return &CallerAuth{secretHash: []byte(secretHash)}, nil
}

// Enabled reports whether requests are checked
func (m *CallerAuth) Enabled() bool {
	return m != nil && len(m.secretHash) > 0
}

// Authenticate rejects requests without a valid X-Caller-Secret header
func (m *CallerAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		secret := r.Header.Get(CallerSecretHeader)
		if secret == "" {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeUnauthorized,
				"Missing X-Caller-Secret header",
				"",
				http.StatusUnauthorized,
			))
			return
		}

		if err := bcrypt.CompareHashAndPassword(m.secretHash, []byte(secret)); err != nil {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeUnauthorized,
				"Invalid caller credentials",
				"",
				http.StatusUnauthorized,
			))
			return
		}

		StripCredentialHeaders(r.Header)
		next.ServeHTTP(w, r)
	})
}
