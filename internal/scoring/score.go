// Package scoring computes the 0-100 compatibility score between two
// users' attribute sets. Pure functions, no storage access: callers load
// the snapshots and hand them in.
package scoring

import (
	"sort"
	"strings"
)

// Profile is the subset of profile attributes scoring reads.
type Profile struct {
	Age    *int
	Gender string
	County string
}

// Bio is the subset of bio attributes scoring reads.
type Bio struct {
	Interests           []string
	PriorityTraits      []string
	FavouriteCuisine    string
	FavouriteMusicGenre string
	PetPreference       string
	LookingFor          string
}

// Inputs is one side's attribute pair. Nil members mean the user has not
// filled that record in yet; the affected criteria are skipped, never an
// error.
type Inputs struct {
	Profile *Profile
	Bio     *Bio
}

// Result is the score plus the human-readable rationale listing every
// criterion that matched.
type Result struct {
	Score     float64
	Rationale string
}

// NoMatchRationale is returned when no criterion contributed.
const NoMatchRationale = "No specific matches found"

// Criterion weights. A weight enters the denominator only when both sides
// populate the attribute, so missing data narrows the comparison instead
// of dragging the score down.
const (
	weightInterests  = 3
	weightTraits     = 2
	weightLookingFor = 2
	weightCuisine    = 1
	weightMusic      = 1
	weightPet        = 1
	weightCounty     = 1
)

// Score evaluates current vs candidate. Deterministic; evaluated from the
// current user's perspective, so it is not guaranteed numerically
// symmetric when only one side populates an attribute.
func Score(current, candidate Inputs) Result {
	var score float64
	var totalWeight int
	var reasons []string

	if current.Bio != nil && candidate.Bio != nil {
		a, b := current.Bio, candidate.Bio

		if len(a.Interests) > 0 && len(b.Interests) > 0 {
			totalWeight += weightInterests
			common := intersect(a.Interests, b.Interests)
			if len(common) > 0 {
				score += weightInterests * float64(len(common)) / float64(maxLen(a.Interests, b.Interests))
				reasons = append(reasons, "Common interests: "+strings.Join(common, ", "))
			}
		}

		if len(a.PriorityTraits) > 0 && len(b.PriorityTraits) > 0 {
			totalWeight += weightTraits
			common := intersect(a.PriorityTraits, b.PriorityTraits)
			if len(common) > 0 {
				score += weightTraits * float64(len(common)) / float64(maxLen(a.PriorityTraits, b.PriorityTraits))
				reasons = append(reasons, "Common traits: "+strings.Join(common, ", "))
			}
		}

		if a.FavouriteCuisine != "" && b.FavouriteCuisine != "" {
			totalWeight += weightCuisine
			if strings.EqualFold(a.FavouriteCuisine, b.FavouriteCuisine) {
				score += weightCuisine
				reasons = append(reasons, "Same favorite cuisine: "+a.FavouriteCuisine)
			}
		}

		if a.FavouriteMusicGenre != "" && b.FavouriteMusicGenre != "" {
			totalWeight += weightMusic
			if strings.EqualFold(a.FavouriteMusicGenre, b.FavouriteMusicGenre) {
				score += weightMusic
				reasons = append(reasons, "Same favorite music: "+a.FavouriteMusicGenre)
			}
		}

		if a.PetPreference != "" && b.PetPreference != "" {
			totalWeight += weightPet
			if strings.EqualFold(a.PetPreference, b.PetPreference) {
				score += weightPet
				reasons = append(reasons, "Same pet preference: "+a.PetPreference)
			}
		}

		if a.LookingFor != "" && b.LookingFor != "" {
			totalWeight += weightLookingFor
			if strings.EqualFold(a.LookingFor, b.LookingFor) {
				score += weightLookingFor
				reasons = append(reasons, "Looking for the same thing: "+a.LookingFor)
			}
		}
	}

	if current.Profile != nil && candidate.Profile != nil {
		a, b := current.Profile, candidate.Profile
		if a.County != "" && b.County != "" {
			totalWeight += weightCounty
			if strings.EqualFold(a.County, b.County) {
				score += weightCounty
				reasons = append(reasons, "Same county: "+a.County)
			}
		}
	}

	result := Result{Rationale: NoMatchRationale}
	if len(reasons) > 0 {
		result.Rationale = strings.Join(reasons, "; ")
	}
	if totalWeight > 0 {
		result.Score = score / float64(totalWeight) * 100
	}
	return result
}

// intersect returns the sorted common elements of two string sets.
func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	var common []string
	for _, s := range a {
		if set[s] {
			common = append(common, s)
			set[s] = false
		}
	}
	sort.Strings(common)
	return common
}

func maxLen(a, b []string) int {
	if len(a) > len(b) {
		return len(a)
	}
	return len(b)
}
