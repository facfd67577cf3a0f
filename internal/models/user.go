// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Placeholder images used when a user signs up without supplying their own.
const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User represents an account in the Warbler application.
type User struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"unique;not null" json:"username"`
	Email          string `gorm:"unique;not null" json:"email"`
	Password       string `gorm:"not null" json:"-"`
	ImageURL       string `json:"image_url"`
	HeaderImageURL string `json:"header_image_url"`
	Bio            string `gorm:"type:varchar(40)" json:"bio"`
	Location       string `gorm:"type:varchar(40)" json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:UserID" json:"messages,omitempty"`
}

// BeforeCreate fills in placeholder images for fields left empty at signup.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ImageURL == "" {
		u.ImageURL = DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = DefaultHeaderImageURL
	}
	return nil
}
