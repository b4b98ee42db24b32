package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/matchme/internal/scoring"
)

func bio(b scoring.Bio) *scoring.Bio             { return &b }
func profile(p scoring.Profile) *scoring.Profile { return &p }

func TestScoreWeightedCriteria(t *testing.T) {
	// interests 3 * 1/2 = 1.5, traits 2 * 1/1 = 2, cuisine 1
	// total weight 3+2+1 = 6 -> 100 * 4.5/6 = 75
	a := scoring.Inputs{Bio: bio(scoring.Bio{
		Interests:        []string{"hiking", "reading"},
		PriorityTraits:   []string{"honesty"},
		FavouriteCuisine: "italian",
	})}
	b := scoring.Inputs{Bio: bio(scoring.Bio{
		Interests:        []string{"hiking", "chess"},
		PriorityTraits:   []string{"honesty"},
		FavouriteCuisine: "italian",
	})}

	res := scoring.Score(a, b)
	assert.InDelta(t, 75.0, res.Score, 1e-9)
	assert.Equal(t, "Common interests: hiking; Common traits: honesty; Same favorite cuisine: italian", res.Rationale)
}

func TestScoreSkipsUnpopulatedCriteria(t *testing.T) {
	// only cuisine populated on both sides; candidate has no music genre,
	// so that criterion must not enter the denominator
	a := scoring.Inputs{Bio: bio(scoring.Bio{
		FavouriteCuisine:    "indian",
		FavouriteMusicGenre: "jazz",
	})}
	b := scoring.Inputs{Bio: bio(scoring.Bio{
		FavouriteCuisine: "Indian",
	})}

	res := scoring.Score(a, b)
	assert.InDelta(t, 100.0, res.Score, 1e-9)
}

func TestScoreCaseInsensitiveEquality(t *testing.T) {
	a := scoring.Inputs{
		Bio:     bio(scoring.Bio{LookingFor: "Relationship"}),
		Profile: profile(scoring.Profile{County: "Tartu"}),
	}
	b := scoring.Inputs{
		Bio:     bio(scoring.Bio{LookingFor: "relationship"}),
		Profile: profile(scoring.Profile{County: "TARTU"}),
	}

	res := scoring.Score(a, b)
	assert.InDelta(t, 100.0, res.Score, 1e-9)
	assert.Equal(t, "Looking for the same thing: Relationship; Same county: Tartu", res.Rationale)
}

func TestScoreZeroWhenNothingApplicable(t *testing.T) {
	res := scoring.Score(scoring.Inputs{}, scoring.Inputs{})
	assert.Zero(t, res.Score)
	assert.Equal(t, scoring.NoMatchRationale, res.Rationale)
}

func TestScoreZeroWhenNothingMatches(t *testing.T) {
	a := scoring.Inputs{Bio: bio(scoring.Bio{
		Interests:        []string{"hiking"},
		FavouriteCuisine: "italian",
	})}
	b := scoring.Inputs{Bio: bio(scoring.Bio{
		Interests:        []string{"chess"},
		FavouriteCuisine: "mexican",
	})}

	res := scoring.Score(a, b)
	assert.Zero(t, res.Score)
	assert.Equal(t, scoring.NoMatchRationale, res.Rationale)
}

func TestScoreBounded(t *testing.T) {
	full := scoring.Inputs{
		Bio: bio(scoring.Bio{
			Interests:           []string{"hiking", "reading", "chess"},
			PriorityTraits:      []string{"honesty", "humor"},
			FavouriteCuisine:    "italian",
			FavouriteMusicGenre: "rock",
			PetPreference:       "dogs",
			LookingFor:          "relationship",
		}),
		Profile: profile(scoring.Profile{County: "Harju"}),
	}

	res := scoring.Score(full, full)
	assert.InDelta(t, 100.0, res.Score, 1e-9)

	partial := scoring.Inputs{Bio: bio(scoring.Bio{Interests: []string{"hiking"}})}
	res = scoring.Score(full, partial)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 100.0)
}

func TestScoreAsymmetryByPerspectiveIsAllowed(t *testing.T) {
	a := scoring.Inputs{Bio: bio(scoring.Bio{
		Interests:        []string{"hiking", "reading"},
		FavouriteCuisine: "italian",
	})}
	b := scoring.Inputs{Bio: bio(scoring.Bio{
		Interests: []string{"hiking"},
	})}

	// cuisine is only populated on one side, so both directions skip it
	// and the scores happen to agree here; the contract only promises
	// determinism, which this pins down.
	ab := scoring.Score(a, b)
	ba := scoring.Score(b, a)
	assert.Equal(t, ab.Score, scoring.Score(a, b).Score)
	assert.Equal(t, ba.Score, scoring.Score(b, a).Score)
}
