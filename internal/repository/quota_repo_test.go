package repository

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanleykwembe/brilltech-mega/internal/testutil"
)

func TestQuotaRepository_CreateFirstUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewQuotaRepository(db)

	created, err := repo.CreateFirstUse(1, 10, "2026-08")
	require.NoError(t, err)
	assert.True(t, created)

	// Second insert for the same (user, subject) loses to the unique index.
	created, err = repo.CreateFirstUse(1, 10, "2026-08")
	require.NoError(t, err)
	assert.False(t, created)

	used, err := repo.UsedThisPeriod(1, 10, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestQuotaRepository_IncrementIfBelow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewQuotaRepository(db)

	// No row yet: nothing to increment.
	ok, err := repo.IncrementIfBelow(1, 10, "2026-08", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.CreateFirstUse(1, 10, "2026-08")
	require.NoError(t, err)

	// Consume up to the limit.
	for i := 2; i <= 5; i++ {
		ok, err = repo.IncrementIfBelow(1, 10, "2026-08", 5)
		require.NoError(t, err)
		assert.True(t, ok, "consumption %d should pass", i)
	}

	// Sixth attempt must not match.
	ok, err = repo.IncrementIfBelow(1, 10, "2026-08", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	used, err := repo.UsedThisPeriod(1, 10, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 5, used)
}

func TestQuotaRepository_IncrementIfBelow_StalePeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewQuotaRepository(db)

	_, err := repo.CreateFirstUse(1, 10, "2026-07")
	require.NoError(t, err)

	// A row from last month never matches the current period predicate.
	ok, err := repo.IncrementIfBelow(1, 10, "2026-08", 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuotaRepository_RolloverAndUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewQuotaRepository(db)

	_, err := repo.CreateFirstUse(1, 10, "2026-07")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = repo.IncrementIfBelow(1, 10, "2026-07", 10)
		require.NoError(t, err)
	}

	rolled, err := repo.RolloverAndUse(1, 10, "2026-08")
	require.NoError(t, err)
	assert.True(t, rolled)

	// The rollover both reset the counter and charged the first use.
	used, err := repo.UsedThisPeriod(1, 10, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 1, used)

	// Same-period rollover never matches.
	rolled, err = repo.RolloverAndUse(1, 10, "2026-08")
	require.NoError(t, err)
	assert.False(t, rolled)
}

func TestQuotaRepository_UsedThisPeriod_MissingOrStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewQuotaRepository(db)

	used, err := repo.UsedThisPeriod(1, 10, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0, used)

	_, err = repo.CreateFirstUse(1, 10, "2026-07")
	require.NoError(t, err)

	used, err = repo.UsedThisPeriod(1, 10, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0, used)
}

func TestQuotaRepository_ConcurrentConsumption(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewQuotaRepository(db)

	const limit = 5
	const workers = 15

	var approved int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			ok, err := repo.IncrementIfBelow(1, 10, "2026-08", limit)
			if err == nil && !ok {
				created, cerr := repo.CreateFirstUse(1, 10, "2026-08")
				if cerr == nil && created {
					ok = true
				} else if cerr == nil {
					ok, _ = repo.IncrementIfBelow(1, 10, "2026-08", limit)
				}
			}
			if ok {
				atomic.AddInt64(&approved, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), approved)

	used, err := repo.UsedThisPeriod(1, 10, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, limit, used)
}
