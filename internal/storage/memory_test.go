package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var got testDoc
	found, err := s.Get(ctx, "things", "a", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "things", "a", testDoc{Name: "first", Count: 1}))
	require.NoError(t, s.Set(ctx, "things", "a", testDoc{Name: "second", Count: 2}))

	found, err = s.Get(ctx, "things", "a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, testDoc{Name: "second", Count: 2}, got)

	found, err = s.Get(ctx, "other", "a", &got)
	require.NoError(t, err)
	assert.False(t, found, "collections are separate")
}

func TestMemoryStore_Create(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Create(ctx, "things", "a", testDoc{Name: "first"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Create(ctx, "things", "a", testDoc{Name: "second"})
	require.NoError(t, err)
	assert.False(t, created)

	var got testDoc
	_, err = s.Get(ctx, "things", "a", &got)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name, "create must not overwrite")
}

func TestMemoryStore_Create_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := s.Create(ctx, "things", "same", testDoc{Count: i})
			assert.NoError(t, err)
			results <- created
		}(i)
	}
	wg.Wait()
	close(results)

	wins := 0
	for created := range results {
		if created {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, s.Len("things"))
}

func TestMemoryStore_GetMalformed(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "things", "a", "just a string"))

	var got testDoc
	found, err := s.Get(ctx, "things", "a", &got)
	assert.Error(t, err)
	assert.False(t, found)
}
