package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/matchme/internal/db"
)

// Snapshot bundles the read-only attribute records for one user. Profile
// and Bio are nil when the user exists but has not filled them in yet.
type Snapshot struct {
	UserID  uint64
	Profile *db.UserProfile
	Bio     *db.UserBio
}

// ProfileRepository resolves users and their profile/bio/preference
// records. The matching core only reads through it, never writes.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// UserExists reports whether the id resolves to a user at all.
func (r *ProfileRepository) UserExists(ctx context.Context, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// ResolveUser returns the user's snapshot, or nil when the user does not
// exist. A missing profile or bio is not an error; the corresponding field
// stays nil.
func (r *ProfileRepository) ResolveUser(ctx context.Context, userID uint64) (*Snapshot, error) {
	exists, err := r.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	snap := &Snapshot{UserID: userID}

	var profile db.UserProfile
	err = r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if err == nil {
		snap.Profile = &profile
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var bio db.UserBio
	err = r.db.WithContext(ctx).Preload("Interests").First(&bio, "user_id = ?", userID).Error
	if err == nil {
		snap.Bio = &bio
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return snap, nil
}

// Preferences returns the user's candidate filter, or nil when the user
// never set one (meaning: no restriction).
func (r *ProfileRepository) Preferences(ctx context.Context, userID uint64) (*db.UserPreferences, error) {
	var prefs db.UserPreferences
	err := r.db.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// AllUserIDs returns every user id, ascending. The candidate pipeline
// starts from this population.
func (r *ProfileRepository) AllUserIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// AllSnapshots loads every user's profile and bio in bulk, keyed by user
// id. One query per table instead of two per candidate.
func (r *ProfileRepository) AllSnapshots(ctx context.Context) (map[uint64]*Snapshot, error) {
	ids, err := r.AllUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	snaps := make(map[uint64]*Snapshot, len(ids))
	for _, id := range ids {
		snaps[id] = &Snapshot{UserID: id}
	}

	var profiles []db.UserProfile
	if err := r.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for i := range profiles {
		if snap, ok := snaps[profiles[i].UserID]; ok {
			snap.Profile = &profiles[i]
		}
	}

	var bios []db.UserBio
	if err := r.db.WithContext(ctx).Preload("Interests").Find(&bios).Error; err != nil {
		return nil, err
	}
	for i := range bios {
		if snap, ok := snaps[bios[i].UserID]; ok {
			snap.Bio = &bios[i]
		}
	}

	return snaps, nil
}
