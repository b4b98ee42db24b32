package discovery_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/matchme/internal/app"
	"github.com/oggyb/matchme/internal/db"
	"github.com/oggyb/matchme/internal/repository"
	"github.com/oggyb/matchme/internal/service/discovery"
)

var (
	hiking  = db.Interest{ID: 1, Name: "hiking"}
	reading = db.Interest{ID: 2, Name: "reading"}
	chess   = db.Interest{ID: 3, Name: "chess"}
)

func intPtr(v int) *int { return &v }

func setupService(t *testing.T) (*discovery.Service, *gorm.DB) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	require.NoError(t, dbase.Create(&[]db.Interest{hiking, reading, chess}).Error)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, nil, nil, logger)
	return discovery.NewService(appCtx), dbase
}

type seedUser struct {
	id      uint64
	age     *int
	gender  db.Gender
	county  string
	bio     *db.UserBio
	prefs   *db.UserPreferences
}

func seedUsers(t *testing.T, dbase *gorm.DB, users ...seedUser) {
	t.Helper()
	for _, u := range users {
		require.NoError(t, dbase.Create(&db.User{
			ID:           u.id,
			Username:     fmt.Sprintf("user%d", u.id),
			Email:        fmt.Sprintf("u%d@test.com", u.id),
			PasswordHash: "x",
		}).Error)

		if u.age != nil || u.gender != "" || u.county != "" {
			require.NoError(t, dbase.Create(&db.UserProfile{
				UserID: u.id,
				Age:    u.age,
				Gender: u.gender,
				County: u.county,
			}).Error)
		}
		if u.bio != nil {
			u.bio.UserID = u.id
			require.NoError(t, dbase.Create(u.bio).Error)
		}
		if u.prefs != nil {
			u.prefs.UserID = u.id
			require.NoError(t, dbase.Create(u.prefs).Error)
		}
	}
}

func TestRankExcludesSelfAndJudged(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	bio := func() *db.UserBio {
		return &db.UserBio{Interests: []db.Interest{hiking}, FavouriteCuisine: "italian"}
	}
	seedUsers(t, dbase,
		seedUser{id: 1, bio: bio()},
		seedUser{id: 2, bio: bio()},
		seedUser{id: 3, bio: bio()},
	)

	// user 1 already judged user 3 (a rejection counts too)
	approvals := repository.NewApprovalRepository(dbase)
	require.NoError(t, approvals.Upsert(ctx, 1, 3, false))

	candidates, err := svc.Rank(ctx, 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint64(2), candidates[0].UserID)

	next, err := svc.Next(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, uint64(2), next.UserID)
}

func TestRankAppliesPreferenceFilter(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	bio := func() *db.UserBio {
		return &db.UserBio{Interests: []db.Interest{hiking}}
	}
	seedUsers(t, dbase,
		seedUser{id: 1, bio: bio(), prefs: &db.UserPreferences{
			MinAge:           intPtr(25),
			MaxAge:           intPtr(35),
			PreferredGenders: []db.Gender{db.GenderFemale},
		}},
		// too old, excluded regardless of score
		seedUser{id: 2, age: intPtr(40), gender: db.GenderFemale, bio: bio()},
		// wrong gender
		seedUser{id: 3, age: intPtr(30), gender: db.GenderMale, bio: bio()},
		// passes
		seedUser{id: 4, age: intPtr(30), gender: db.GenderFemale, bio: bio()},
		// no profile at all: cannot satisfy the age filter
		seedUser{id: 5, bio: bio()},
	)

	candidates, err := svc.Rank(ctx, 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint64(4), candidates[0].UserID)

	count, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRankNoPreferencesMeansNoRestriction(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	bio := func() *db.UserBio {
		return &db.UserBio{Interests: []db.Interest{hiking}}
	}
	seedUsers(t, dbase,
		seedUser{id: 1, bio: bio()},
		seedUser{id: 2, age: intPtr(99), gender: db.GenderOther, bio: bio()},
		seedUser{id: 3, bio: bio()},
	)

	candidates, err := svc.Rank(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestRankDropsZeroScores(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	seedUsers(t, dbase,
		seedUser{id: 1, bio: &db.UserBio{Interests: []db.Interest{hiking}}},
		// shares nothing with user 1
		seedUser{id: 2, bio: &db.UserBio{Interests: []db.Interest{chess}}},
	)

	candidates, err := svc.Rank(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	next, err := svc.Next(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRankOrderingIsDeterministic(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	seedUsers(t, dbase,
		seedUser{id: 1, bio: &db.UserBio{
			Interests:        []db.Interest{hiking, reading},
			FavouriteCuisine: "italian",
		}},
		// shares one of two interests: score 3*(1/2)/3 -> 50
		seedUser{id: 2, bio: &db.UserBio{Interests: []db.Interest{hiking}}},
		// same partial overlap as user 2, tie broken by id
		seedUser{id: 3, bio: &db.UserBio{Interests: []db.Interest{hiking}}},
		// full overlap plus cuisine: the clear best
		seedUser{id: 4, bio: &db.UserBio{
			Interests:        []db.Interest{hiking, reading},
			FavouriteCuisine: "Italian",
		}},
	)

	candidates, err := svc.Rank(ctx, 1)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, uint64(4), candidates[0].UserID)
	assert.Equal(t, uint64(2), candidates[1].UserID)
	assert.Equal(t, uint64(3), candidates[2].UserID)
	assert.Equal(t, candidates[1].Score, candidates[2].Score)

	for _, c := range candidates {
		assert.Greater(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 100.0)
	}

	next, err := svc.Next(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, candidates[0].UserID, next.UserID)
}

func TestScoreScenarioSeventyFive(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	honesty := []string{"honesty"}
	seedUsers(t, dbase,
		seedUser{id: 1, bio: &db.UserBio{
			Interests:        []db.Interest{hiking, reading},
			PriorityTraits:   honesty,
			FavouriteCuisine: "italian",
		}},
		seedUser{id: 2, bio: &db.UserBio{
			Interests:        []db.Interest{hiking, chess},
			PriorityTraits:   honesty,
			FavouriteCuisine: "italian",
		}},
	)

	candidates, err := svc.Rank(ctx, 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 75.0, candidates[0].Score, 1e-9)
	assert.Contains(t, candidates[0].Rationale, "Common interests: hiking")
}
