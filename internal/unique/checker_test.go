// internal/unique/checker_test.go
package unique

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-intake/internal/common/database"
	apperrors "recruit-intake/internal/common/errors"
	"recruit-intake/internal/common/logger"
	"recruit-intake/internal/store"
	"recruit-intake/pkg/registry"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1MS21CS001", Normalize(" 1ms21cs001 "))
	assert.Equal(t, "1MS21CS001", Normalize("1MS21CS001"))
	assert.Equal(t, "", Normalize("   "))
}

func seedPartition(t *testing.T, mem *store.MemoryStore, partition string, usns ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mem.CreatePartition(ctx, partition, 1))
	require.NoError(t, mem.WriteRow(ctx, partition, registry.HeaderRowIndex, registry.BasicHeaders))
	for _, usn := range usns {
		require.NoError(t, mem.AppendRow(ctx, partition, []string{"t", "someone", usn}))
	}
}

func TestIsDuplicate_MatchInAnotherPartition(t *testing.T) {
	mem := store.NewMemoryStore()
	seedPartition(t, mem, "Technical", "1MS21CS001")

	c := NewChecker(mem, registry.Default(), nil, logger.NewTestLogger(t))

	// Uniqueness is global: a USN registered under Technical blocks Design.
	dup, err := c.IsDuplicate(context.Background(), "1ms21cs001")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicate_NormalizedForms(t *testing.T) {
	mem := store.NewMemoryStore()
	seedPartition(t, mem, "Design", " 1ms21cs001 ")

	c := NewChecker(mem, registry.Default(), nil, logger.NewNoOpLogger())

	dup, err := c.IsDuplicate(context.Background(), "1MS21CS001")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicate_NoMatch(t *testing.T) {
	mem := store.NewMemoryStore()
	seedPartition(t, mem, "Technical", "1MS21CS001")

	c := NewChecker(mem, registry.Default(), nil, logger.NewNoOpLogger())

	dup, err := c.IsDuplicate(context.Background(), "1MS21CS999")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicate_MissingPartitionsAreVacuous(t *testing.T) {
	// No partition has ever been created: the scan contributes zero matches
	// from every team and must not fail.
	c := NewChecker(store.NewMemoryStore(), registry.Default(), nil, logger.NewNoOpLogger())

	dup, err := c.IsDuplicate(context.Background(), "1MS21CS001")
	require.NoError(t, err)
	assert.False(t, dup)
}

// failingReadStore fails every column read.
type failingReadStore struct {
	store.TabularStore
}

func (f *failingReadStore) ReadColumn(ctx context.Context, partition string, columnIndex, fromRow int) ([]string, error) {
	return nil, errors.New("transport failure")
}

func TestIsDuplicate_ScanFailure(t *testing.T) {
	c := NewChecker(&failingReadStore{TabularStore: store.NewMemoryStore()}, registry.Default(), nil, logger.NewNoOpLogger())

	_, err := c.IsDuplicate(context.Background(), "1MS21CS001")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStoreUnavailable, apperrors.AsStandardError(err).Code)
}

func newTestCache(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &database.RedisClient{Client: client}, mr
}

func TestIsDuplicate_CacheFastPath(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	// Store is empty but the cache remembers the identifier, so the check
	// short-circuits before any scan.
	c := NewChecker(&failingReadStore{TabularStore: store.NewMemoryStore()}, registry.Default(), cache, logger.NewTestLogger(t))
	c.Remember(ctx, " 1ms21cs001 ")

	dup, err := c.IsDuplicate(ctx, "1MS21CS001")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicate_CacheMissFallsBackToScan(t *testing.T) {
	cache, _ := newTestCache(t)
	mem := store.NewMemoryStore()
	seedPartition(t, mem, "Technical", "1MS21CS001")

	c := NewChecker(mem, registry.Default(), cache, logger.NewTestLogger(t))

	dup, err := c.IsDuplicate(context.Background(), "1MS21CS001")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicate_CacheOutageIsNonFatal(t *testing.T) {
	cache, mr := newTestCache(t)
	mem := store.NewMemoryStore()
	seedPartition(t, mem, "Technical", "1MS21CS001")

	mr.Close()

	c := NewChecker(mem, registry.Default(), cache, logger.NewTestLogger(t))

	dup, err := c.IsDuplicate(context.Background(), "1MS21CS001")
	require.NoError(t, err)
	assert.True(t, dup)
}
