package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	internalcrypto "github.com/better-wallet/linewallet/internal/crypto"
	"github.com/better-wallet/linewallet/internal/storage"
	apperrors "github.com/better-wallet/linewallet/pkg/errors"
	"github.com/better-wallet/linewallet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingIdentityStore reports absence on the first Get and loses every create,
// as if another request linked the id in between.
type racingIdentityStore struct {
	mu     sync.Mutex
	stored *types.IdentityLink
	gets   int
}

func (s *racingIdentityStore) Get(context.Context, string) (*types.IdentityLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.gets == 1 {
		return nil, nil
	}
	return s.stored, nil
}

func (s *racingIdentityStore) CreateIfAbsent(context.Context, *types.IdentityLink) (bool, error) {
	return false, nil
}

func TestIdentityLinker_Derive(t *testing.T) {
	linker := NewIdentityLinker(storage.NewIdentityLinkRepository(storage.NewMemoryStore()))

	id := linker.Derive("U1")
	assert.Equal(t, internalcrypto.Digest("U1"), id)
	assert.Equal(t, id, linker.Derive("U1"))
	assert.NotEqual(t, id, linker.Derive("U2"))
}

func TestIdentityLinker_Resolve(t *testing.T) {
	docs := storage.NewMemoryStore()
	linker := NewIdentityLinker(storage.NewIdentityLinkRepository(docs))
	ctx := context.Background()

	_, found, err := linker.Lookup(ctx, "U1")
	require.NoError(t, err)
	assert.False(t, found)

	id, err := linker.Resolve(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, linker.Derive("U1"), id)

	got, found, err := linker.Lookup(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got)

	again, err := linker.Resolve(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, docs.Len(types.CollectionIdentityLinks))
}

func TestIdentityLinker_Resolve_AfterRestart(t *testing.T) {
	docs := storage.NewMemoryStore()
	ctx := context.Background()

	first, err := NewIdentityLinker(storage.NewIdentityLinkRepository(docs)).Resolve(ctx, "U1")
	require.NoError(t, err)

	// A fresh linker over an empty store derives the same id.
	fresh, err := NewIdentityLinker(storage.NewIdentityLinkRepository(storage.NewMemoryStore())).Resolve(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, first, fresh)
}

func TestIdentityLinker_Resolve_StoredValueWins(t *testing.T) {
	docs := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, docs.Set(ctx, types.CollectionIdentityLinks, "U1", &types.IdentityLink{
		ExternalUserID: "U1",
		InternalUserID: "0xlegacy",
	}))

	id, err := NewIdentityLinker(storage.NewIdentityLinkRepository(docs)).Resolve(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "0xlegacy", id)
}

func TestIdentityLinker_Resolve_LostRace(t *testing.T) {
	ctx := context.Background()
	linker := NewIdentityLinker(&racingIdentityStore{
		stored: &types.IdentityLink{ExternalUserID: "U1", InternalUserID: internalcrypto.Digest("U1")},
	})

	id, err := linker.Resolve(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, linker.Derive("U1"), id)
}

func TestIdentityLinker_Resolve_Concurrent(t *testing.T) {
	docs := storage.NewMemoryStore()
	linker := NewIdentityLinker(storage.NewIdentityLinkRepository(docs))

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := linker.Resolve(context.Background(), "U1")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, linker.Derive("U1"), id)
	}
	assert.Equal(t, 1, docs.Len(types.CollectionIdentityLinks))
}

func TestIdentityLinker_StoreUnavailable(t *testing.T) {
	docs := &faultyDocs{MemoryStore: storage.NewMemoryStore(), failGet: true}
	linker := NewIdentityLinker(storage.NewIdentityLinkRepository(docs))
	ctx := context.Background()

	_, _, err := linker.Lookup(ctx, "U1")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errStoreDown)

	_, err = linker.Resolve(ctx, "U1")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	docs.failGet = false
	docs.failCreate = true
	_, err = linker.Resolve(ctx, "U1")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Equal(t, 0, docs.Len(types.CollectionIdentityLinks))
}

func TestIdentityLinker_MalformedLink(t *testing.T) {
	docs := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, docs.Set(ctx, types.CollectionIdentityLinks, "U1", map[string]string{"external_user_id": "U1"}))

	_, err := NewIdentityLinker(storage.NewIdentityLinkRepository(docs)).Resolve(ctx, "U1")
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	assert.True(t, errors.Is(err, storage.ErrMalformedDocument))
}
