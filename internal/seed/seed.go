// Package seed provides database seeding utilities for development and demos.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumMessages int
	ShouldClean bool
}

// DefaultOptions returns a reasonable demo dataset size.
func DefaultOptions() Options {
	return Options{NumUsers: 25, NumMessages: 200}
}

// Run populates the database with demo users, follow edges, messages, and
// likes. Every seeded account uses the password "password1".
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts = DefaultOptions()
	}

	if opts.ShouldClean {
		if err := clean(db); err != nil {
			return err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := make([]models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		users = append(users, models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:    fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Password: string(hashed),
			Bio:      truncate(gofakeit.Quote(), 40),
			Location: truncate(gofakeit.City(), 40),
			ImageURL: gofakeit.ImageURL(160, 160),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	// Each user follows a handful of the others.
	for _, u := range users {
		for _, v := range pickOthers(users, u.ID, 5) {
			follow := models.Follow{FollowerID: u.ID, FollowedID: v}
			if err := db.Create(&follow).Error; err != nil {
				return fmt.Errorf("seed follows: %w", err)
			}
		}
	}

	messages := make([]models.Message, 0, opts.NumMessages)
	now := time.Now()
	for i := 0; i < opts.NumMessages; i++ {
		owner := users[rand.Intn(len(users))]
		messages = append(messages, models.Message{
			Text:      truncate(gofakeit.HipsterSentence(8), models.MaxMessageLen),
			UserID:    owner.ID,
			CreatedAt: now.Add(-time.Duration(rand.Intn(7*24*60)) * time.Minute),
		})
	}
	if err := db.Create(&messages).Error; err != nil {
		return fmt.Errorf("seed messages: %w", err)
	}

	// Sprinkle likes; the unique index dedupes collisions.
	for _, m := range messages {
		for i := 0; i < rand.Intn(4); i++ {
			liker := users[rand.Intn(len(users))]
			like := models.Like{UserID: liker.ID, MessageID: m.ID}
			db.Where("user_id = ? AND message_id = ?", liker.ID, m.ID).
				FirstOrCreate(&like)
		}
	}

	return nil
}

func clean(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clean tables: %w", err)
		}
	}
	return nil
}

// pickOthers returns up to n distinct user ids other than self.
func pickOthers(users []models.User, self uint, n int) []uint {
	perm := rand.Perm(len(users))
	picked := make([]uint, 0, n)
	for _, idx := range perm {
		if users[idx].ID == self {
			continue
		}
		picked = append(picked, users[idx].ID)
		if len(picked) == n {
			break
		}
	}
	return picked
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
