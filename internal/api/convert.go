package api

import (
	"time"

	"github.com/oggyb/connecta/internal/db"
	"github.com/oggyb/connecta/internal/matcher"
)

// ProfileFromUser projects u. Age is filled when the birthday parses.
func ProfileFromUser(u *db.User, now time.Time) Profile {
	p := Profile{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Photos:            nonNil(u.Photos),
		Gender:            u.Gender,
		Birthday:          u.Birthday,
		Interests:         nonNil(u.Interests),
		RelationshipGoals: nonNil(u.RelationshipGoals),
		Location: Location{
			Country: u.Location.Country,
			State:   u.Location.State,
			City:    u.Location.City,
		},
		ProfileCompleted: u.ProfileCompleted,
		IsPremium:        u.IsPremium,
	}
	if age, ok := matcher.Age(u.Birthday, now); ok {
		p.Age = &age
	}
	return p
}

func MessageFromModel(m *db.Message) Message {
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Text:           m.Text,
		Type:           m.Type,
		MediaURL:       m.MediaURL,
		Read:           m.Read,
		Timestamp:      m.SentAt,
	}
}

func ConversationFromModel(c *db.Conversation) Conversation {
	out := Conversation{
		ID:              c.ID,
		LastMessage:     c.LastMessage,
		LastMessageType: c.LastMessageType,
		LastMessageTime: c.LastMessageTime,
		CreatedAt:       c.CreatedAt,
		Participants:    make([]Participant, 0, len(c.Participants)),
	}
	for _, p := range c.Participants {
		out.Participants = append(out.Participants, Participant{
			UserID:      p.UserID,
			Name:        p.UserName,
			Photo:       p.UserPhoto,
			UnreadCount: p.UnreadCount,
			LastReadAt:  p.LastReadAt,
		})
	}
	return out
}

// nonNil keeps empty lists as [] on the wire.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
