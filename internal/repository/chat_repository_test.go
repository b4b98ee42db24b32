package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchme/internal/repository"
)

func TestFindOrCreateThreadIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewChatRepository(setupTestDB(t))

	first, err := repo.FindOrCreateThread(ctx, 7, 3)
	require.NoError(t, err)
	require.NotNil(t, first)

	// repeated call, and the reversed pair, resolve to the same thread
	again, err := repo.FindOrCreateThread(ctx, 7, 3)
	require.NoError(t, err)
	reversed, err := repo.FindOrCreateThread(ctx, 3, 7)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.ID, reversed.ID)
	assert.Equal(t, uint64(3), first.UserAID)
	assert.Equal(t, uint64(7), first.UserBID)
}

func TestThreadBetweenReturnsNilWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewChatRepository(setupTestDB(t))

	thread, err := repo.ThreadBetween(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, thread)
}

func TestMessagesByThreadPagination(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewChatRepository(setupTestDB(t))

	thread, err := repo.FindOrCreateThread(ctx, 1, 2)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := repo.AppendMessage(ctx, thread.ID, 1, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	page1, token, err := repo.MessagesByThread(ctx, thread.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.NotNil(t, token)
	assert.Equal(t, "msg 0", page1[0].Content)

	page2, token2, err := repo.MessagesByThread(ctx, thread.ID, token, 3)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Nil(t, token2)
	assert.Equal(t, "msg 3", page2[0].Content)
	assert.Equal(t, "msg 4", page2[1].Content)
}
