package chat

import (
	"context"
	"strings"

	"github.com/oggyb/matchme/internal/app"
	"github.com/oggyb/matchme/internal/broadcast"
	"github.com/oggyb/matchme/internal/db"
	svcErr "github.com/oggyb/matchme/internal/errors"
	"github.com/oggyb/matchme/internal/repository"
)

// Service gates all conversation access behind the match requirement:
// a pair may open a thread, send, or read only while mutually approved.
type Service struct {
	appCtx    *app.AppContext
	chats     *repository.ChatRepository
	approvals *repository.ApprovalRepository
	profiles  *repository.ProfileRepository
}

// NewService creates the chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		chats:     repository.NewChatRepository(appCtx.DB),
		approvals: repository.NewApprovalRepository(appCtx.DB),
		profiles:  repository.NewProfileRepository(appCtx.DB),
	}
}

// Authorize checks that the caller may converse with the other user.
// Self-chat is rejected outright; an unknown peer and a non-matched
// peer each get their own error kind.
func (s *Service) Authorize(ctx context.Context, userID, otherID uint64) error {
	if userID == otherID {
		return svcErr.SelfReference()
	}

	exists, err := s.profiles.UserExists(ctx, otherID)
	if err != nil {
		return err
	}
	if !exists {
		return svcErr.UnknownUser(otherID)
	}

	forward, err := s.approvals.HasApproved(ctx, userID, otherID)
	if err != nil {
		return err
	}
	reverse, err := s.approvals.HasApproved(ctx, otherID, userID)
	if err != nil {
		return err
	}
	if !forward || !reverse {
		return svcErr.NotMatched()
	}
	return nil
}

// Thread returns the caller's conversation with the other user, opening
// it on first use.
func (s *Service) Thread(ctx context.Context, userID, otherID uint64) (*db.ChatThread, error) {
	if err := s.Authorize(ctx, userID, otherID); err != nil {
		return nil, err
	}
	return s.chats.FindOrCreateThread(ctx, userID, otherID)
}

// SendMessage persists a message to the pair's thread and announces it
// on the thread channel. The broadcast is best-effort; the message is
// durable once this returns.
func (s *Service) SendMessage(ctx context.Context, senderID, otherID uint64, content string) (*db.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, svcErr.InvalidArgument("message content must not be empty")
	}

	thread, err := s.Thread(ctx, senderID, otherID)
	if err != nil {
		return nil, err
	}

	msg, err := s.chats.AppendMessage(ctx, thread.ID, senderID, content)
	if err != nil {
		return nil, err
	}

	event := broadcast.NewEvent(broadcast.EventChat, map[string]any{
		"message_id": msg.ID,
		"thread_id":  msg.ThreadID,
		"sender_id":  msg.SenderID,
		"content":    msg.Content,
		"sent_unix":  msg.SentAt.UnixMilli(),
	})
	if err := s.appCtx.Broadcaster.Publish(ctx, broadcast.ChatChannel(thread.ID), event); err != nil {
		s.appCtx.Logger.Error("failed to publish chat event",
			"thread_id", thread.ID, "sender_id", senderID, "error", err)
	}

	return msg, nil
}

// History returns the conversation's messages oldest first. A match
// that never exchanged a message gets an empty page, not an error.
func (s *Service) History(
	ctx context.Context,
	userID, otherID uint64,
	paginationToken *string,
	limit int,
) ([]db.ChatMessage, *string, error) {
	if err := s.Authorize(ctx, userID, otherID); err != nil {
		return nil, nil, err
	}

	thread, err := s.chats.ThreadBetween(ctx, userID, otherID)
	if err != nil {
		return nil, nil, err
	}
	if thread == nil {
		return []db.ChatMessage{}, nil, nil
	}

	return s.chats.MessagesByThread(ctx, thread.ID, paginationToken, limit)
}
