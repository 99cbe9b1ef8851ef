package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	seedFirstNames = []string{"Amira", "Bilal", "Chloe", "Dawud", "Elif", "Farah", "Hamza", "Iman", "Jamal", "Layla"}
	seedLastNames  = []string{"Khan", "Ahmed", "Rossi", "Yilmaz", "Haddad", "Osei", "Malik", "Nasser"}
	seedInterests  = []string{"hiking", "cooking", "reading", "travel", "football", "music", "art", "gaming"}
	seedGoals      = []string{"marriage", "long-term", "friendship"}
	seedLocations  = []Location{
		{Country: "UK", State: "England", City: "London"},
		{Country: "UK", State: "England", City: "Manchester"},
		{Country: "UK", State: "Scotland", City: "Glasgow"},
		{Country: "Turkey", State: "Istanbul", City: "Istanbul"},
	}
)

// SeedTestData resets the database and populates it with demo profiles and likes.
//
// Behavior:
//  1. Clears messages, conversations, edges and users.
//  2. Creates `users` profiles alternating male/female with hashed passwords.
//  3. Every user likes up to 4 opposite-gender users; every 3rd like is reciprocated.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, users int, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "conversation_participants", "conversations", "favorite_edges", "like_edges", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if db.Dialector.Name() == "mysql" {
		db.Exec("ALTER TABLE messages AUTO_INCREMENT = 1")
	}
	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed users ---
	seeded := make([]User, 0, users)
	for i := 1; i <= users; i++ {
		gender, preferred := "male", "female"
		if i%2 == 0 {
			gender, preferred = preferred, gender
		}
		loc := seedLocations[r.Intn(len(seedLocations))]
		u := User{
			ID:                 fmt.Sprintf("user%d", i),
			Email:              fmt.Sprintf("user%d@example.com", i),
			PasswordHash:       string(hash),
			FirstName:          seedFirstNames[r.Intn(len(seedFirstNames))],
			LastName:           seedLastNames[r.Intn(len(seedLastNames))],
			Photos:             []string{fmt.Sprintf("https://cdn.example.com/u/%d/0.jpg", i)},
			Gender:             gender,
			GenderPreferred:    preferred,
			AgePreference:      "21-40",
			Birthday:           fmt.Sprintf("%02d/%02d/%d", r.Intn(28)+1, r.Intn(12)+1, 1985+r.Intn(18)),
			RelationshipGoals:  []string{seedGoals[r.Intn(len(seedGoals))]},
			Interests:          pick(r, seedInterests, 3),
			Location:           loc,
			LocationPreference: Location{Country: loc.Country},
			ProfileCompleted:   ProfileComplete,
			IsPremium:          i%5 == 0,
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		seeded = append(seeded, u)
	}
	log.Info("seeded users", "count", len(seeded))

	// --- Seed likes ---
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "liked_at"}),
	}
	counter := 0
	for _, actor := range seeded {
		liked := 0
		for _, j := range r.Perm(len(seeded)) {
			target := seeded[j]
			if liked >= 4 || target.ID == actor.ID || target.Gender != actor.GenderPreferred {
				continue
			}
			now := time.Now().UTC().Add(-time.Duration(r.Intn(500)) * time.Minute)
			if err := db.Clauses(upsert).Create(&LikeEdge{ActorID: actor.ID, TargetID: target.ID, Value: true, LikedAt: now}).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			if counter%3 == 0 {
				db.Clauses(upsert).Create(&LikeEdge{ActorID: target.ID, TargetID: actor.ID, Value: true, LikedAt: now})
			}
			liked++
			counter++
		}
	}
	log.Info("seeded likes", "count", counter)

	return nil
}

func pick(r *rand.Rand, from []string, n int) []string {
	out := make([]string, 0, n)
	for _, i := range r.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}
