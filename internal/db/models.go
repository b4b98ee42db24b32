package db

import (
	"time"
)

// Gender values stored on profiles and preference filters.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// User table. Identity only; profile/bio/preferences live in their own
// tables keyed by user id (no embedded back-references).
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// UserProfile holds the attributes candidate filtering and scoring read.
// Nullable fields stay nil until the user fills them in.
type UserProfile struct {
	UserID      uint64 `gorm:"primaryKey"`
	DisplayName string `gorm:"size:64"`
	AboutMe     string `gorm:"type:text"`
	County      string `gorm:"size:64"`
	Age         *int
	Gender      Gender    `gorm:"size:16"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Interest is the shared catalogue of selectable interests.
type Interest struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;size:64;not null"`
}

// UserBio holds free-text preference fields plus the interest and
// priority-trait sets used by compatibility scoring.
type UserBio struct {
	UserID              uint64     `gorm:"primaryKey"`
	Interests           []Interest `gorm:"many2many:user_interests"`
	FavouriteCuisine    string     `gorm:"size:64"`
	FavouriteMusicGenre string     `gorm:"size:64"`
	PetPreference       string     `gorm:"size:64"`
	LookingFor          string     `gorm:"size:64"`
	PriorityTraits      []string   `gorm:"serializer:json;type:text"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime"`
}

// UserPreferences is the candidate filter. Nil/empty fields impose no
// restriction on that dimension.
type UserPreferences struct {
	UserID            uint64 `gorm:"primaryKey"`
	MinAge            *int
	MaxAge            *int
	PreferredGenders  []Gender `gorm:"serializer:json;type:text"`
	PreferredCounties []string `gorm:"serializer:json;type:text"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// ApprovalEdge represents an actor's approve/reject decision on a target.
//
// Composite PK: (ActorID, TargetID)
//   - Ensures a single row per ordered pair (overwrite guarantee).
//
// Indexes:
//   - idx_target_approved_updated_actor(target_id, approved, updated_at DESC, actor_id)
//     Optimizes "who approved me" lists with pagination.
//   - idx_actor_target_approved(actor_id, target_id, approved)
//     Optimizes O(1) lookup for reciprocity checks.
type ApprovalEdge struct {
	ActorID   uint64    `gorm:"primaryKey;index:idx_actor_target_approved,priority:1"`
	TargetID  uint64    `gorm:"primaryKey;index:idx_target_approved_updated_actor,priority:1;index:idx_actor_target_approved,priority:2"`
	Approved  bool      `gorm:"not null;type:tinyint(1);index:idx_target_approved_updated_actor,priority:2;index:idx_actor_target_approved,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_target_approved_updated_actor,priority:3,sort:desc"`
}

// ChatThread is the conversation record for a matched pair. The pair is
// normalized so that UserAID < UserBID, which makes find-or-create
// order-independent and lets the unique index enforce one thread per pair.
type ChatThread struct {
	UserAID   uint64 `gorm:"not null;uniqueIndex:idx_thread_pair,priority:1"`
	UserBID   uint64 `gorm:"not null;uniqueIndex:idx_thread_pair,priority:2"`
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ChatMessage is one persisted message within a thread.
type ChatMessage struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	ThreadID uint64 `gorm:"not null;index:idx_thread_sent,priority:1"`
	SenderID uint64 `gorm:"not null"`
	Content  string `gorm:"type:text;not null"`
	SentAt   time.Time `gorm:"autoCreateTime;index:idx_thread_sent,priority:2"`
}

// NormalizePair orders an unordered user pair for thread lookup.
func NormalizePair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}
