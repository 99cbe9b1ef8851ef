package db

import (
	"time"
)

// Profile completion states. Only "incomplete" profiles are hidden from matching.
const (
	ProfilePending    = "pending"
	ProfileIncomplete = "incomplete"
	ProfileComplete   = "complete"
)

// Location is embedded twice on User (actual location and preference).
type Location struct {
	Country string `gorm:"size:64"`
	State   string `gorm:"size:64"`
	City    string `gorm:"size:64"`
}

// IsZero reports whether no location field is set.
func (l Location) IsZero() bool {
	return l.Country == "" && l.State == "" && l.City == ""
}

// User is the profile document (users/{id}). It is written by the
// registration/profile-edit path and the seed tool; the engine only reads it.
type User struct {
	ID                 string    `gorm:"primaryKey;size:64"`
	Email              string    `gorm:"size:128;index"`
	PasswordHash       string    `gorm:"size:255"`
	FirstName          string    `gorm:"size:64"`
	LastName           string    `gorm:"size:64"`
	Photos             []string  `gorm:"serializer:json;type:text"`
	Gender             string    `gorm:"size:16;index"`
	GenderPreferred    string    `gorm:"size:16"`
	AgePreference      string    `gorm:"size:16"` // "25+" or "25-35"
	Birthday           string    `gorm:"size:10"` // DD/MM/YYYY
	RelationshipGoals  []string  `gorm:"serializer:json;type:text"`
	Interests          []string  `gorm:"serializer:json;type:text"`
	Location           Location  `gorm:"embedded;embeddedPrefix:location_"`
	LocationPreference Location  `gorm:"embedded;embeddedPrefix:location_pref_"`
	ProfileCompleted   string    `gorm:"size:16;default:pending"`
	IsPremium          bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// DisplayName is the first name used in conversation snapshots.
func (u *User) DisplayName() string {
	if u == nil || u.FirstName == "" {
		return "Unknown"
	}
	return u.FirstName
}

// Avatar returns the first photo or "".
func (u *User) Avatar() string {
	if u == nil || len(u.Photos) == 0 {
		return ""
	}
	return u.Photos[0]
}

// LikeEdge is actor → target interest (likedUsers/{actor}/{target}).
//
// Composite PK: (ActorID, TargetID)
//   - One row per ordered pair; a repeated like overwrites LikedAt.
//
// Indexes:
//   - idx_like_target(target_id, liked_at): "who liked me" scans.
//
// A match is never stored: it exists iff both directions exist.
type LikeEdge struct {
	ActorID   string    `gorm:"primaryKey;size:64"`
	TargetID  string    `gorm:"primaryKey;size:64;index:idx_like_target,priority:1"`
	Value     bool      `gorm:"not null;default:true"`
	LikedAt   time.Time `gorm:"not null;index:idx_like_target,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// FavoriteEdge is user → target bookmark (favorites/{user}/{target}).
// Unlike LikeEdge it can be removed.
type FavoriteEdge struct {
	UserID      string    `gorm:"primaryKey;size:64"`
	TargetID    string    `gorm:"primaryKey;size:64"`
	FavoritedAt time.Time `gorm:"not null"`
}

// Conversation is the derived summary of a message log (conversations/{id}).
// It only exists once the first message has been written.
type Conversation struct {
	ID              string        `gorm:"primaryKey;size:128"`
	LastMessage     string        `gorm:"type:text"`
	LastMessageType string        `gorm:"size:16"`
	LastMessageTime time.Time     `gorm:"index"`
	CreatedAt       time.Time     `gorm:"autoCreateTime:false"`
	Participants    []Participant `gorm:"foreignKey:ConversationID"`
}

// Participant returns the entry for userID, or nil.
func (c *Conversation) Participant(userID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// Other returns the participant that is not userID, or nil.
func (c *Conversation) Other(userID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID != userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// Participant holds per-user conversation state: the display snapshot taken
// on the last message, the unread counter and the last read instant.
type Participant struct {
	ConversationID string     `gorm:"primaryKey;size:128"`
	UserID         string     `gorm:"primaryKey;size:64;index"`
	UserName       string     `gorm:"size:64"`
	UserPhoto      string     `gorm:"size:512"`
	UnreadCount    int64      `gorm:"not null;default:0"`
	LastReadAt     *time.Time
}

func (Participant) TableName() string { return "conversation_participants" }

// Message is one entry of messages/{conversation}/{id}.
//
// Seq is the insertion order and breaks ties between equal SentAt values.
type Message struct {
	Seq            uint64    `gorm:"primaryKey;autoIncrement"`
	ID             string    `gorm:"uniqueIndex;size:36"`
	ConversationID string    `gorm:"size:128;not null;index:idx_messages_conv_sent,priority:1"`
	SenderID       string    `gorm:"size:64;not null"`
	ReceiverID     string    `gorm:"size:64;not null"`
	Text           *string   `gorm:"type:text"`
	Type           string    `gorm:"size:16;not null;default:text"`
	MediaURL       *string   `gorm:"size:512"`
	Read           bool      `gorm:"not null;default:false"`
	SentAt         time.Time `gorm:"not null;index:idx_messages_conv_sent,priority:2"`
}

// Models lists every table, in migration order.
func Models() []any {
	return []any{
		&User{},
		&LikeEdge{},
		&FavoriteEdge{},
		&Conversation{},
		&Participant{},
		&Message{},
	}
}
