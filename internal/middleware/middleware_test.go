package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/better-wallet/linewallet/internal/logger"
	apperrors "github.com/better-wallet/linewallet/pkg/errors"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"from upstream", "req-from-proxy", true},
		{"oversized upstream id", strings.Repeat("x", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
				return
			}
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}

func TestLimitBody(t *testing.T) {
	h := LimitBody(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userId":"u1"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, small)
	assert.Equal(t, http.StatusOK, rec.Code)

	large := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, MaxBodySize+1)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, large)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := NewStatusRecorder(rec)

	assert.Equal(t, http.StatusOK, sr.StatusCode)

	sr.WriteHeader(http.StatusConflict)
	sr.WriteHeader(http.StatusInternalServerError)
	_, err := sr.Write([]byte("x"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, sr.StatusCode)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(&buf, "json", "debug")
	require.NoError(t, err)
	prev := slog.Default()
	slog.SetDefault(l)
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := RequestID(Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/user/create-wallet", nil)
	req.Header.Set(CallerSecretHeader, "super-secret")
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.NotContains(t, out, "super-secret")

	var last map[string]any
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "request completed", last["msg"])
	assert.Equal(t, "/user/create-wallet", last["path"])
	assert.Equal(t, float64(http.StatusCreated), last["status"])
	assert.Equal(t, "req-1", last["request_id"])
}

func TestCallerAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("caller-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	auth, err := NewCallerAuth(string(hash))
	require.NoError(t, err)
	assert.True(t, auth.Enabled())

	var forwarded http.Header
	h := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		secret     string
		wantStatus int
		wantMsg    string
	}{
		{"valid secret", "caller-secret", http.StatusOK, ""},
		{"missing secret", "", http.StatusUnauthorized, "Missing X-Caller-Secret header"},
		{"wrong secret", "guess", http.StatusUnauthorized, "Invalid caller credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/user/get-wallet", nil)
			if tt.secret != "" {
				req.Header.Set(CallerSecretHeader, tt.secret)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Empty(t, forwarded.Get(CallerSecretHeader), "secret stripped after auth")
				return
			}

			var body apperrors.AppError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, apperrors.ErrCodeUnauthorized, body.Code)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestCallerAuth_Disabled(t *testing.T) {
	auth, err := NewCallerAuth("")
	require.NoError(t, err)
	assert.False(t, auth.Enabled())

	h := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/get-wallet", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNewCallerAuth_InvalidHash(t *testing.T) {
	_, err := NewCallerAuth("not-a-bcrypt-hash")
	assert.Error(t, err)
}
