package discovery

import (
	"context"
	"sort"

	"github.com/oggyb/matchme/internal/app"
	"github.com/oggyb/matchme/internal/db"
	svcErr "github.com/oggyb/matchme/internal/errors"
	"github.com/oggyb/matchme/internal/repository"
	"github.com/oggyb/matchme/internal/scoring"
)

// Service runs the candidate-selection pipeline: population minus self and
// already-judged users, preference filter, compatibility score, rank.
type Service struct {
	appCtx    *app.AppContext
	approvals *repository.ApprovalRepository
	profiles  *repository.ProfileRepository
}

// NewService creates the discovery service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		approvals: repository.NewApprovalRepository(appCtx.DB),
		profiles:  repository.NewProfileRepository(appCtx.DB),
	}
}

// Candidate is one ranked result: the candidate's attribute records plus
// the score and its rationale.
type Candidate struct {
	UserID    uint64
	Score     float64
	Rationale string
	Profile   *db.UserProfile
	Bio       *db.UserBio
}

// Rank returns every unjudged candidate passing the current user's
// preference filter with a nonzero compatibility score, best first. Ties
// break on ascending candidate id so the ordering is deterministic.
func (s *Service) Rank(ctx context.Context, userID uint64) ([]Candidate, error) {
	candidates, err := s.pipeline(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UserID < candidates[j].UserID
	})
	return candidates, nil
}

// Next returns the single best candidate, or nil when none qualify.
// Max-reduction over the same pipeline; no full sort.
func (s *Service) Next(ctx context.Context, userID uint64) (*Candidate, error) {
	candidates, err := s.pipeline(ctx, userID)
	if err != nil {
		return nil, err
	}

	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if best == nil || c.Score > best.Score ||
			(c.Score == best.Score && c.UserID < best.UserID) {
			best = c
		}
	}
	return best, nil
}

// Count returns how many candidates the pipeline currently yields.
func (s *Service) Count(ctx context.Context, userID uint64) (int, error) {
	candidates, err := s.pipeline(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

// pipeline yields the unsorted qualifying candidates.
func (s *Service) pipeline(ctx context.Context, userID uint64) ([]Candidate, error) {
	snaps, err := s.profiles.AllSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	current, ok := snaps[userID]
	if !ok {
		return nil, svcErr.UnknownUser(userID)
	}

	judgedIDs, err := s.approvals.JudgedTargetIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	judged := make(map[uint64]bool, len(judgedIDs))
	for _, id := range judgedIDs {
		judged[id] = true
	}

	prefs, err := s.profiles.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	currentInputs := toScoringInputs(current)

	var candidates []Candidate
	for id, snap := range snaps {
		if id == userID || judged[id] {
			continue
		}
		if !passesFilter(prefs, snap.Profile) {
			continue
		}

		res := scoring.Score(currentInputs, toScoringInputs(snap))
		if res.Score == 0 {
			// zero compatibility is a non-match, not a low match
			continue
		}

		candidates = append(candidates, Candidate{
			UserID:    id,
			Score:     res.Score,
			Rationale: res.Rationale,
			Profile:   snap.Profile,
			Bio:       snap.Bio,
		})
	}
	return candidates, nil
}

// passesFilter applies the current user's preference filter. A nil filter
// or an unset field imposes no restriction; an enforced field the
// candidate cannot satisfy (including a missing profile) excludes them.
func passesFilter(prefs *db.UserPreferences, profile *db.UserProfile) bool {
	if prefs == nil {
		return true
	}

	if prefs.MinAge != nil && (profile == nil || profile.Age == nil || *profile.Age < *prefs.MinAge) {
		return false
	}
	if prefs.MaxAge != nil && (profile == nil || profile.Age == nil || *profile.Age > *prefs.MaxAge) {
		return false
	}

	if len(prefs.PreferredGenders) > 0 {
		if profile == nil || !containsGender(prefs.PreferredGenders, profile.Gender) {
			return false
		}
	}
	if len(prefs.PreferredCounties) > 0 {
		if profile == nil || !containsString(prefs.PreferredCounties, profile.County) {
			return false
		}
	}
	return true
}

func containsGender(set []db.Gender, g db.Gender) bool {
	for _, v := range set {
		if v == g {
			return true
		}
	}
	return false
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// toScoringInputs converts a snapshot into the scorer's pure input types.
func toScoringInputs(snap *repository.Snapshot) scoring.Inputs {
	var in scoring.Inputs
	if snap.Profile != nil {
		in.Profile = &scoring.Profile{
			Age:    snap.Profile.Age,
			Gender: string(snap.Profile.Gender),
			County: snap.Profile.County,
		}
	}
	if snap.Bio != nil {
		interests := make([]string, 0, len(snap.Bio.Interests))
		for _, interest := range snap.Bio.Interests {
			interests = append(interests, interest.Name)
		}
		in.Bio = &scoring.Bio{
			Interests:           interests,
			PriorityTraits:      snap.Bio.PriorityTraits,
			FavouriteCuisine:    snap.Bio.FavouriteCuisine,
			FavouriteMusicGenre: snap.Bio.FavouriteMusicGenre,
			PetPreference:       snap.Bio.PetPreference,
			LookingFor:          snap.Bio.LookingFor,
		}
	}
	return in
}
