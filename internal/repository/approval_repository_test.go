package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/matchme/internal/db"
	"github.com/oggyb/matchme/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func boolPtr(b bool) *bool { return &b }

func TestUpsertOverwritesEdge(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewApprovalRepository(dbase)

	// insert approval
	require.NoError(t, repo.Upsert(ctx, 1, 2, true))

	// overwrite with rejection
	require.NoError(t, repo.Upsert(ctx, 1, 2, false))

	var count int64
	require.NoError(t, dbase.Model(&db.ApprovalEdge{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "only one row per ordered pair")

	edge, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.False(t, edge.Approved)
}

func TestGetReturnsNilWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewApprovalRepository(setupTestDB(t))

	edge, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, edge)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewApprovalRepository(setupTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 1, 2, true))

	removed, err := repo.Remove(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	// second removal is a no-op success
	removed, err = repo.Remove(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListByActorFilters(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewApprovalRepository(setupTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 1, 2, true))
	require.NoError(t, repo.Upsert(ctx, 1, 3, false))
	require.NoError(t, repo.Upsert(ctx, 1, 4, true))
	require.NoError(t, repo.Upsert(ctx, 2, 1, true))

	all, _, err := repo.ListByActor(ctx, 1, nil, nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	approved, _, err := repo.ListByActor(ctx, 1, boolPtr(true), nil, 10)
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	rejected, _, err := repo.ListByActor(ctx, 1, boolPtr(false), nil, 10)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, uint64(3), rejected[0].TargetID)
}

func TestListByTargetPagination(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewApprovalRepository(setupTestDB(t))

	for actor := uint64(1); actor <= 5; actor++ {
		require.NoError(t, repo.Upsert(ctx, actor, 99, true))
	}

	page1, token, err := repo.ListByTarget(ctx, 99, boolPtr(true), nil, 3)
	require.NoError(t, err)
	assert.Len(t, page1, 3)
	require.NotNil(t, token)

	page2, token2, err := repo.ListByTarget(ctx, 99, boolPtr(true), token, 3)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.Nil(t, token2)

	seen := map[uint64]bool{}
	for _, e := range append(page1, page2...) {
		seen[e.ActorID] = true
	}
	assert.Len(t, seen, 5, "pages must not overlap")
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewApprovalRepository(setupTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 1, 2, true))
	require.NoError(t, repo.Upsert(ctx, 1, 3, false))
	require.NoError(t, repo.Upsert(ctx, 3, 2, true))

	given, err := repo.CountByActor(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), given)

	givenApproved, err := repo.CountByActor(ctx, 1, boolPtr(true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), givenApproved)

	received, err := repo.CountByTarget(ctx, 2, boolPtr(true))
	require.NoError(t, err)
	assert.Equal(t, int64(2), received)
}

func TestJudgedTargetIDs(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewApprovalRepository(setupTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 1, 2, true))
	require.NoError(t, repo.Upsert(ctx, 1, 3, false))

	ids, err := repo.JudgedTargetIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids, "both approvals and rejections count as judged")
}

func TestMatchedUserIDs(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewApprovalRepository(setupTestDB(t))

	// 1 <-> 2 mutual, 1 -> 3 one-way, 4 -> 1 one-way, 1 <-> 5 but 5 rejected
	require.NoError(t, repo.Upsert(ctx, 1, 2, true))
	require.NoError(t, repo.Upsert(ctx, 2, 1, true))
	require.NoError(t, repo.Upsert(ctx, 1, 3, true))
	require.NoError(t, repo.Upsert(ctx, 4, 1, true))
	require.NoError(t, repo.Upsert(ctx, 1, 5, true))
	require.NoError(t, repo.Upsert(ctx, 5, 1, false))

	ids, err := repo.MatchedUserIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids)
}
