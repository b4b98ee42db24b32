package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	seedInterests = []string{
		"hiking", "reading", "chess", "cooking", "travel",
		"music", "movies", "sports", "art", "gaming",
	}
	seedCounties = []string{"Harju", "Tartu", "Pärnu", "Viljandi", "Saare"}
	seedCuisines = []string{"italian", "mexican", "indian", "japanese"}
	seedGenres   = []string{"rock", "pop", "jazz", "electronic"}
	seedPets     = []string{"dogs", "cats", "none"}
	seedGoals    = []string{"relationship", "friendship", "casual"}
	seedTraits   = []string{"honesty", "humor", "kindness", "ambition", "loyalty"}
)

// SeedTestData resets the database and populates it with demo users,
// profiles, bios, preferences and approval edges.
//
// Behavior:
//  1. Clears all domain tables.
//  2. Creates the interest catalogue.
//  3. Creates 20 users (10 male, 10 female) with profiles, bios and
//     preference filters.
//  4. Generates ~200 approval edges with ~70% approvals; every 3rd pair is
//     forced mutual so matches exist out of the box.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"chat_messages", "chat_threads", "approval_edges",
		"user_interests", "user_bios", "user_preferences",
		"user_profiles", "interests", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if db.Dialector.Name() == "mysql" {
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE interests AUTO_INCREMENT = 1")
	}

	log.Println("Cleared existing data")

	// --- Interest catalogue ---
	interests := make([]Interest, 0, len(seedInterests))
	for _, name := range seedInterests {
		interests = append(interests, Interest{Name: name})
	}
	if err := db.Create(&interests).Error; err != nil {
		return fmt.Errorf("failed to seed interests: %w", err)
	}

	// --- Users with profiles, bios, preferences ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender, wanted := GenderMale, GenderFemale
		if i > 10 {
			gender, wanted = GenderFemale, GenderMale
		}

		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		age := 22 + r.Intn(20)
		profile := UserProfile{
			UserID:      user.ID,
			DisplayName: fmt.Sprintf("Demo User %d", i),
			AboutMe:     "Just here to meet new people.",
			County:      seedCounties[r.Intn(len(seedCounties))],
			Age:         &age,
			Gender:      gender,
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		// 2-4 interests, 1-3 priority traits per user
		picked := r.Perm(len(interests))[:2+r.Intn(3)]
		bioInterests := make([]Interest, 0, len(picked))
		for _, idx := range picked {
			bioInterests = append(bioInterests, interests[idx])
		}
		traits := append([]string(nil), seedTraits[:1+r.Intn(3)]...)

		bio := UserBio{
			UserID:              user.ID,
			Interests:           bioInterests,
			FavouriteCuisine:    seedCuisines[r.Intn(len(seedCuisines))],
			FavouriteMusicGenre: seedGenres[r.Intn(len(seedGenres))],
			PetPreference:       seedPets[r.Intn(len(seedPets))],
			LookingFor:          seedGoals[r.Intn(len(seedGoals))],
			PriorityTraits:      traits,
		}
		if err := db.Create(&bio).Error; err != nil {
			return fmt.Errorf("failed to seed bio: %w", err)
		}

		minAge, maxAge := 20, 45
		prefs := UserPreferences{
			UserID:           user.ID,
			MinAge:           &minAge,
			MaxAge:           &maxAge,
			PreferredGenders: []Gender{wanted},
		}
		if err := db.Create(&prefs).Error; err != nil {
			return fmt.Errorf("failed to seed preferences: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Approval edges (~200) ---
	counter := 0
	for actorID := uint64(1); actorID <= 20; actorID++ {
		for j := 0; j < 12; j++ {
			targetID := uint64(r.Intn(20) + 1)
			if actorID == targetID {
				continue
			}

			approved := r.Intn(100) < 70

			// guarantee mutual approvals every 3rd pair
			if counter%3 == 0 {
				approved = true
				reverse := ApprovalEdge{ActorID: targetID, TargetID: actorID, Approved: true}
				db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"approved", "updated_at"}),
				}).Create(&reverse)
			}

			edge := ApprovalEdge{ActorID: actorID, TargetID: targetID, Approved: approved}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"approved", "updated_at"}),
			}).Create(&edge).Error; err != nil {
				return fmt.Errorf("failed to seed edge: %w", err)
			}

			counter++
		}
	}

	return nil
}
