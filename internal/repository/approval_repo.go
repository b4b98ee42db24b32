package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchme/internal/db"
	"github.com/oggyb/matchme/internal/utils/pagination"
)

// ApprovalRepository provides data access methods for the ApprovalEdge
// model. It encapsulates all queries on the directed approval graph.
type ApprovalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new repository bound to the given DB connection.
func NewApprovalRepository(database *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: database}
}

// WithTx returns a repository bound to the given transaction. Used by the
// approval service to run upsert + reciprocity check as one unit of work.
func (r *ApprovalRepository) WithTx(tx *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: tx}
}

// Upsert inserts or overwrites the edge actor -> target.
//
// The composite PK (actor_id, target_id) guarantees a single row per
// ordered pair; a repeat decision updates "approved" in place.
func (r *ApprovalRepository) Upsert(ctx context.Context, actorID, targetID uint64, approved bool) error {
	edge := db.ApprovalEdge{
		ActorID:  actorID,
		TargetID: targetID,
		Approved: approved,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"approved", "updated_at"}),
		}).
		Create(&edge).Error
}

// Get returns the edge actor -> target, or nil when no decision exists.
func (r *ApprovalRepository) Get(ctx context.Context, actorID, targetID uint64) (*db.ApprovalEdge, error) {
	return r.get(ctx, actorID, targetID, false)
}

// GetForUpdate is Get with a row lock, for use inside a transaction.
// SQLite has no FOR UPDATE but serializes writers on its own, so the lock
// clause is only emitted on MySQL.
func (r *ApprovalRepository) GetForUpdate(ctx context.Context, actorID, targetID uint64) (*db.ApprovalEdge, error) {
	return r.get(ctx, actorID, targetID, true)
}

func (r *ApprovalRepository) get(ctx context.Context, actorID, targetID uint64, lock bool) (*db.ApprovalEdge, error) {
	query := r.db.WithContext(ctx)
	if lock && r.db.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var edge db.ApprovalEdge
	err := query.
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// Remove deletes the edge actor -> target and reports whether a row was
// actually removed. Removing an absent edge is a no-op, not an error.
func (r *ApprovalRepository) Remove(ctx context.Context, actorID, targetID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		Delete(&db.ApprovalEdge{})
	return res.RowsAffected > 0, res.Error
}

// HasApproved checks whether actor -> target exists with approved = true.
// This is the point lookup reciprocity detection runs on.
func (r *ApprovalRepository) HasApproved(ctx context.Context, actorID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ApprovalEdge{}).
		Where("actor_id = ? AND target_id = ? AND approved = ?", actorID, targetID, true).
		Count(&count).Error
	return count > 0, err
}

// ListByActor returns edges written by the actor, newest first, with
// optional approved filter and cursor-based pagination.
func (r *ApprovalRepository) ListByActor(
	ctx context.Context,
	actorID uint64,
	approved *bool,
	paginationToken *string,
	limit int,
) ([]db.ApprovalEdge, *string, error) {
	return r.list(ctx, "actor_id", "target_id", actorID, approved, paginationToken, limit)
}

// ListByTarget is ListByActor over incoming edges.
func (r *ApprovalRepository) ListByTarget(
	ctx context.Context,
	targetID uint64,
	approved *bool,
	paginationToken *string,
	limit int,
) ([]db.ApprovalEdge, *string, error) {
	return r.list(ctx, "target_id", "actor_id", targetID, approved, paginationToken, limit)
}

func (r *ApprovalRepository) list(
	ctx context.Context,
	keyCol, peerCol string,
	id uint64,
	approved *bool,
	paginationToken *string,
	limit int,
) ([]db.ApprovalEdge, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.ApprovalEdge{}).
		Where(keyCol+" = ?", id).
		Order("updated_at DESC, " + peerCol + " DESC").
		Limit(limit + 1)

	if approved != nil {
		query = query.Where("approved = ?", *approved)
	}

	if cursor.ID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix)
		query = query.Where(
			"(updated_at < ? OR (updated_at = ? AND "+peerCol+" < ?))",
			ts, ts, cursor.ID,
		)
	}

	var edges []db.ApprovalEdge
	if err := query.Find(&edges).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(edges) > limit {
		last := edges[limit-1]
		peerID := last.TargetID
		if peerCol == "actor_id" {
			peerID = last.ActorID
		}
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          peerID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		edges = edges[:limit]
	}

	return edges, nextToken, nil
}

// CountByActor counts edges written by the actor, with optional approved filter.
func (r *ApprovalRepository) CountByActor(ctx context.Context, actorID uint64, approved *bool) (int64, error) {
	return r.count(ctx, "actor_id", actorID, approved)
}

// CountByTarget counts edges pointing at the target, with optional approved filter.
func (r *ApprovalRepository) CountByTarget(ctx context.Context, targetID uint64, approved *bool) (int64, error) {
	return r.count(ctx, "target_id", targetID, approved)
}

func (r *ApprovalRepository) count(ctx context.Context, col string, id uint64, approved *bool) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&db.ApprovalEdge{}).
		Where(col+" = ?", id)
	if approved != nil {
		query = query.Where("approved = ?", *approved)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// JudgedTargetIDs returns every user the actor has already decided on,
// approved or rejected. Candidate selection excludes these.
func (r *ApprovalRepository) JudgedTargetIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.ApprovalEdge{}).
		Where("actor_id = ?", actorID).
		Pluck("target_id", &ids).Error
	return ids, err
}

// MatchedUserIDs returns the user's match set: approved targets whose
// reverse edge is also an approval. Matches are always recomputed from the
// edges, never stored.
func (r *ApprovalRepository) MatchedUserIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Table("approval_edges e").
		Where("e.actor_id = ? AND e.approved = ?", userID, true).
		Where(`EXISTS (
			SELECT 1 FROM approval_edges r
			WHERE r.actor_id = e.target_id
			  AND r.target_id = e.actor_id
			  AND r.approved = ?)`, true).
		Order("e.target_id ASC").
		Pluck("e.target_id", &ids).Error
	return ids, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
