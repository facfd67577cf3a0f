package models

import "time"

// MaxMessageLen is the maximum number of characters in a message.
const MaxMessageLen = 140

// Message is a short post owned by a single user. Messages are immutable
// after creation except for deletion.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:varchar(140);not null" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`

	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"-" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this message (computed)
	Liked bool `gorm:"-" json:"liked"`
}
