package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchme/internal/db"
	"github.com/oggyb/matchme/internal/utils/pagination"
)

// ChatRepository persists conversation threads and messages. Authorization
// happens in the chat service; this layer only stores.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new repository bound to the given DB connection.
func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// ThreadBetween returns the thread for the unordered pair, or nil when the
// two users never opened one.
func (r *ChatRepository) ThreadBetween(ctx context.Context, userA, userB uint64) (*db.ChatThread, error) {
	lo, hi := db.NormalizePair(userA, userB)
	var thread db.ChatThread
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// FindOrCreateThread returns the pair's thread, creating it on first use.
// The pair is normalized before lookup, so both call orders resolve to the
// same thread; the unique index plus OnConflict DoNothing keeps concurrent
// first calls from creating duplicates.
func (r *ChatRepository) FindOrCreateThread(ctx context.Context, userA, userB uint64) (*db.ChatThread, error) {
	if existing, err := r.ThreadBetween(ctx, userA, userB); err != nil || existing != nil {
		return existing, err
	}

	lo, hi := db.NormalizePair(userA, userB)
	thread := db.ChatThread{UserAID: lo, UserBID: hi}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&thread).Error
	if err != nil {
		return nil, err
	}
	if thread.ID != 0 {
		return &thread, nil
	}

	// lost the insert race; fetch the winner's row
	return r.ThreadBetween(ctx, userA, userB)
}

// AppendMessage stores one message in the thread.
func (r *ChatRepository) AppendMessage(ctx context.Context, threadID, senderID uint64, content string) (*db.ChatMessage, error) {
	msg := db.ChatMessage{
		ThreadID: threadID,
		SenderID: senderID,
		Content:  content,
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// MessagesByThread returns the thread's messages in chronological order
// with cursor-based pagination.
func (r *ChatRepository) MessagesByThread(
	ctx context.Context,
	threadID uint64,
	paginationToken *string,
	limit int,
) ([]db.ChatMessage, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("id ASC").
		Limit(limit + 1)

	if cursor.ID > 0 {
		query = query.Where("id > ?", cursor.ID)
	}

	var messages []db.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(messages) > limit {
		token, _ := pagination.Encode(pagination.Cursor{ID: messages[limit-1].ID})
		nextToken = &token
		messages = messages[:limit]
	}

	return messages, nextToken, nil
}
