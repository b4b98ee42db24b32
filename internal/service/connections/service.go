package connections

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/oggyb/matchme/internal/app"
	"github.com/oggyb/matchme/internal/broadcast"
	"github.com/oggyb/matchme/internal/db"
	svcErr "github.com/oggyb/matchme/internal/errors"
	"github.com/oggyb/matchme/internal/repository"
)

// Service owns the directed approval graph and its reciprocity detection.
// An approval plus its reverse approval is a match; the match relation is
// always recomputed from the two edges, never stored.
type Service struct {
	appCtx    *app.AppContext
	approvals *repository.ApprovalRepository
	profiles  *repository.ProfileRepository
}

// NewService creates the connections service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		approvals: repository.NewApprovalRepository(appCtx.DB),
		profiles:  repository.NewProfileRepository(appCtx.DB),
	}
}

// Approve records the actor's decision on the target and reports whether
// the pair is now matched.
//
// Behavior:
//   - Rejects self-reference and unknown users.
//   - Upsert + reverse-edge check run in one transaction with both edge
//     rows locked, so of two users approving each other concurrently
//     exactly one observes the completed pair and emits the match event.
//   - A repeat approval of an already-matched pair reports matched but
//     does not re-emit the event.
func (s *Service) Approve(ctx context.Context, actorID, targetID uint64, approved bool) (bool, error) {
	log := s.appCtx.Logger
	log.Debug("Approve called", "actor", actorID, "target", targetID, "approved", approved)

	if actorID == targetID {
		return false, svcErr.SelfReference()
	}
	for _, id := range []uint64{actorID, targetID} {
		exists, err := s.profiles.UserExists(ctx, id)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, svcErr.UnknownUser(id)
		}
	}

	var matched, newMatch, wasApproved bool
	unitOfWork := func() error {
		return s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
			repo := s.approvals.WithTx(tx)

			// Lock both rows of the pair in normalized order so concurrent
			// reciprocal approvals serialize instead of deadlocking.
			lo, hi := db.NormalizePair(actorID, targetID)
			edgeLoHi, err := repo.GetForUpdate(ctx, lo, hi)
			if err != nil {
				return err
			}
			edgeHiLo, err := repo.GetForUpdate(ctx, hi, lo)
			if err != nil {
				return err
			}

			prior, reverse := edgeLoHi, edgeHiLo
			if actorID == hi {
				prior, reverse = edgeHiLo, edgeLoHi
			}
			wasApproved = prior != nil && prior.Approved

			if err := repo.Upsert(ctx, actorID, targetID, approved); err != nil {
				return err
			}

			reverseApproved := reverse != nil && reverse.Approved
			matched = approved && reverseApproved
			newMatch = matched && !wasApproved
			return nil
		})
	}

	err := unitOfWork()
	if isDeadlock(err) {
		// Two first-ever reciprocal approvals can both gap-lock the empty
		// pair range on InnoDB; the aborted side retries once and then
		// sees the winner's committed edge.
		log.Debug("retrying approval after deadlock", "actor", actorID, "target", targetID)
		err = unitOfWork()
	}
	if err != nil {
		return false, err
	}

	s.bumpReceivedCounter(ctx, targetID, wasApproved, approved)

	if newMatch {
		s.publishMatch(ctx, actorID, targetID)
	}

	return matched, nil
}

// bumpReceivedCounter keeps the cached received-approval counter in step
// with an edge transition. Cache failures are logged, never surfaced.
func (s *Service) bumpReceivedCounter(ctx context.Context, targetID uint64, wasApproved, isApproved bool) {
	var delta int64
	switch {
	case isApproved && !wasApproved:
		delta = 1
	case !isApproved && wasApproved:
		delta = -1
	default:
		return
	}
	if err := s.appCtx.RedisCache.BumpReceivedCount(ctx, targetID, delta); err != nil {
		s.appCtx.Logger.Warn("failed to bump received counter", "user", targetID, "err", err)
	}
}

// publishMatch notifies both users on their private channels. Broadcast is
// fire-and-forget: a transport failure never rolls back the edges.
func (s *Service) publishMatch(ctx context.Context, actorID, targetID uint64) {
	pairs := [2][2]uint64{{actorID, targetID}, {targetID, actorID}}
	for _, p := range pairs {
		recipient, other := p[0], p[1]
		event := broadcast.NewEvent(broadcast.EventMatch, map[string]any{
			"matched_user_id":   other,
			"matched_user_name": s.displayName(ctx, other),
		})
		if err := s.appCtx.Broadcaster.Publish(ctx, broadcast.MatchChannel(recipient), event); err != nil {
			s.appCtx.Logger.Warn("failed to publish match event", "user", recipient, "err", err)
		}
	}
}

func (s *Service) displayName(ctx context.Context, userID uint64) string {
	snap, err := s.profiles.ResolveUser(ctx, userID)
	if err == nil && snap != nil && snap.Profile != nil && snap.Profile.DisplayName != "" {
		return snap.Profile.DisplayName
	}
	return ""
}

// RemoveApproval deletes the actor's edge toward the target. Removing an
// absent edge is a no-op success. Read and delete share one transaction
// so a concurrent overwrite cannot skew the cached counter adjustment.
func (s *Service) RemoveApproval(ctx context.Context, actorID, targetID uint64) (bool, error) {
	var removed, priorApproved bool
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.approvals.WithTx(tx)

		prior, err := repo.GetForUpdate(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		priorApproved = prior != nil && prior.Approved

		removed, err = repo.Remove(ctx, actorID, targetID)
		return err
	})
	if err != nil {
		return false, err
	}

	if removed && priorApproved {
		s.bumpReceivedCounter(ctx, targetID, true, false)
	}
	return removed, nil
}

// isDeadlock matches InnoDB's ER_LOCK_DEADLOCK, the only error class the
// approval unit of work retries.
func isDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1213
}

// ListGiven returns the actor's outgoing edges, optionally filtered by
// approval value, newest first, with cursor pagination.
func (s *Service) ListGiven(ctx context.Context, actorID uint64, approved *bool, token *string, limit int) ([]db.ApprovalEdge, *string, error) {
	return s.approvals.ListByActor(ctx, actorID, approved, token, limit)
}

// ListReceived returns the user's incoming edges.
func (s *Service) ListReceived(ctx context.Context, targetID uint64, approved *bool, token *string, limit int) ([]db.ApprovalEdge, *string, error) {
	return s.approvals.ListByTarget(ctx, targetID, approved, token, limit)
}

// CountGiven counts the actor's outgoing edges with an optional approval filter.
func (s *Service) CountGiven(ctx context.Context, actorID uint64, approved *bool) (int64, error) {
	return s.approvals.CountByActor(ctx, actorID, approved)
}

// CountReceived counts incoming approvals for the user.
// Cache-first strategy:
//  1. Attempts to read from Redis (approvals:received:userID).
//  2. On cache miss, falls back to the DB count.
//  3. On DB fetch, stores the counter with a TTL.
func (s *Service) CountReceived(ctx context.Context, userID uint64) (int64, error) {
	if count, ok, err := s.appCtx.RedisCache.GetReceivedCount(ctx, userID); err == nil && ok {
		return count, nil
	}

	approved := true
	count, err := s.approvals.CountByTarget(ctx, userID, &approved)
	if err != nil {
		return 0, err
	}
	if err := s.appCtx.RedisCache.SetReceivedCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("failed to cache received counter", "user", userID, "err", err)
	}
	return count, nil
}

// IsMatch reports whether both directions of the pair are approvals. Two
// point lookups against the composite index; no side effects.
func (s *Service) IsMatch(ctx context.Context, userA, userB uint64) (bool, error) {
	forward, err := s.approvals.HasApproved(ctx, userA, userB)
	if err != nil || !forward {
		return false, err
	}
	return s.approvals.HasApproved(ctx, userB, userA)
}

// MatchesFor returns the user's match set, the connections list surfaced
// to chat and presence.
func (s *Service) MatchesFor(ctx context.Context, userID uint64) ([]uint64, error) {
	return s.approvals.MatchedUserIDs(ctx, userID)
}
