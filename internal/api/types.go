package api

import "time"

// Empty is returned by calls that only report success.
type Empty struct{}

// Location mirrors {country, state, city}.
type Location struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
}

// Profile is the public projection of a user. Credentials never leave the store.
type Profile struct {
	ID                string   `json:"id"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Photos            []string `json:"photos"`
	Gender            string   `json:"gender,omitempty"`
	Birthday          string   `json:"birthday,omitempty"`
	Age               *int     `json:"age,omitempty"`
	Interests         []string `json:"interests"`
	RelationshipGoals []string `json:"relationshipGoals"`
	Location          Location `json:"location"`
	ProfileCompleted  string   `json:"profileCompleted"`
	IsPremium         bool     `json:"isPremium"`
}

//
// MatchService
//

type FindMatchesRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Search   string `json:"search,omitempty"`
	MinAge   string `json:"minAge,omitempty"`
	MaxAge   string `json:"maxAge,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Location string `json:"location,omitempty"`
}

type FindMatchesResponse struct {
	Matches []Profile `json:"matches"`
}

//
// InterestService
//

type LikeRequest struct {
	UserID   string `json:"userId" validate:"required"`
	TargetID string `json:"targetId" validate:"required"`
}

type LikeResponse struct {
	IsMatch bool `json:"isMatch"`
}

type FavoriteRequest struct {
	UserID   string `json:"userId" validate:"required"`
	TargetID string `json:"targetId" validate:"required"`
}

type UserRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// LikedProfile is a like edge joined with the other side's profile.
type LikedProfile struct {
	Profile Profile   `json:"profile"`
	LikedAt time.Time `json:"likedAt"`
}

type ListLikesResponse struct {
	Sent     []LikedProfile `json:"sent"`
	Received []LikedProfile `json:"received"`
	Mutual   []LikedProfile `json:"mutual"`
}

type FavoriteProfile struct {
	Profile     Profile   `json:"profile"`
	FavoritedAt time.Time `json:"favoritedAt"`
}

type ListFavoritesResponse struct {
	Favorites []FavoriteProfile `json:"favorites"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

//
// ChatService
//

// SendMessageRequest appends one message. Either Text or MediaURL is required;
// Type defaults to "text".
type SendMessageRequest struct {
	ConversationID string  `json:"conversationId" validate:"required,convid"`
	SenderID       string  `json:"senderId" validate:"required"`
	ReceiverID     string  `json:"receiverId" validate:"required,nefield=SenderID"`
	Text           *string `json:"text,omitempty"`
	Type           string  `json:"type,omitempty" validate:"omitempty,max=16"`
	MediaURL       *string `json:"mediaUrl,omitempty" validate:"omitempty,max=512"`

	// Origin is the relay connection the request came from, if any.
	Origin string `json:"-"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Text           *string   `json:"text"`
	Type           string    `json:"type"`
	MediaURL       *string   `json:"mediaUrl"`
	Read           bool      `json:"read"`
	Timestamp      time.Time `json:"timestamp"`
}

type Participant struct {
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Photo       string     `json:"photo"`
	UnreadCount int64      `json:"unreadCount"`
	LastReadAt  *time.Time `json:"lastReadAt,omitempty"`
}

type Conversation struct {
	ID              string        `json:"id"`
	Participants    []Participant `json:"participants"`
	LastMessage     string        `json:"lastMessage"`
	LastMessageType string        `json:"lastMessageType"`
	LastMessageTime time.Time     `json:"lastMessageTime"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type SendMessageResponse struct {
	Message      Message      `json:"message"`
	Conversation Conversation `json:"conversation"`
}

// ListMessagesRequest pages through history when Limit > 0.
type ListMessagesRequest struct {
	ConversationID string `json:"conversationId"`
	Limit          int    `json:"limit,omitempty" validate:"gte=0,lte=500"`
	PageToken      string `json:"pageToken,omitempty"`
}

type ListMessagesResponse struct {
	Messages      []Message `json:"messages"`
	NextPageToken *string   `json:"nextPageToken,omitempty"`
}

type ConversationRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	UserID         string `json:"userId" validate:"required"`
}

// ConversationEntry is one row of a user's conversation list.
type ConversationEntry struct {
	ID              string    `json:"id"`
	OtherUserID     string    `json:"otherUserId"`
	OtherUserName   string    `json:"otherUserName"`
	OtherUserPhoto  string    `json:"otherUserPhoto"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int64     `json:"unreadCount"`
}

type ListConversationsResponse struct {
	Conversations []ConversationEntry `json:"conversations"`
}

type SetTypingRequest struct {
	ConversationID string `json:"conversationId" validate:"required,convid"`
	UserID         string `json:"userId" validate:"required"`
	IsTyping       bool   `json:"isTyping"`

	Origin string `json:"-"`
}

type TypingResponse struct {
	IsTyping bool `json:"isTyping"`
}

type OnlineResponse struct {
	Online bool `json:"online"`
}

//
// NotificationService
//

const (
	NotificationLike    = "like"
	NotificationMessage = "message"
)

type Notification struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	UserID         string    `json:"userId"`
	Name           string    `json:"name"`
	Avatar         string    `json:"avatar"`
	ConversationID string    `json:"conversationId,omitempty"`
	LastMessage    string    `json:"lastMessage,omitempty"`
	UnreadCount    int64     `json:"unreadCount,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type FeedResponse struct {
	Notifications []Notification `json:"notifications"`
}

type MarkReadRequest struct {
	UserID         string `json:"userId" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
}
