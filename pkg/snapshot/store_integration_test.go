package snapshot

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// exerciseStore runs the common Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	fixedClock(t)
	ctx := context.Background()

	v1, _ := NewVersion("one", "", sampleGraph())
	v2, _ := NewVersion("two", "", sampleGraph())
	require.NoError(t, s.Save(ctx, v1))
	require.NoError(t, s.Save(ctx, v2))
	defer s.Delete(ctx, v2.ID)

	got, err := s.Get(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.ContentHash, got.ContentHash)
	assert.Equal(t, v1.Graph.EdgeCount(), got.Graph.EdgeCount())

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)
	assert.Equal(t, v2.ID, list[0].ID)

	require.NoError(t, s.Delete(ctx, v1.ID))
	_, err = s.Get(ctx, v1.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeVersionNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, v1.ID), errors.ErrCodeVersionNotFound))
}

func TestFileStoreContract(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

// Set FLOWMAP_TEST_REDIS_ADDR to run.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FLOWMAP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FLOWMAP_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisStoreFromClient(client, "flowmap:test:"+t.Name()+":")
	defer s.Close()
	exerciseStore(t, s)
}

// Set FLOWMAP_TEST_MONGO_URI to run.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FLOWMAP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FLOWMAP_TEST_MONGO_URI not set")
	}
	s, err := NewMongoStore(context.Background(), uri, "flowmap_test")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}
