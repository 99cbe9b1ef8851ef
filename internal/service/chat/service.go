package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/app"
	"github.com/oggyb/connecta/internal/db"
	svcErr "github.com/oggyb/connecta/internal/errors"
	"github.com/oggyb/connecta/internal/realtime"
	"github.com/oggyb/connecta/internal/repository"
	"github.com/oggyb/connecta/internal/utils/pagination"
	"github.com/oggyb/connecta/internal/utils/validate"
)

// Message types with a last-message placeholder.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeVideo = "video"
)

// ConversationID is the canonical id for the pair: the two user ids in
// ascending order joined by "_". Clients are expected to use it.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// Placeholder is the summary text of a message without text.
func Placeholder(msgType string) string {
	switch msgType {
	case TypeImage:
		return "📷 Photo"
	case TypeVideo:
		return "🎥 Video"
	default:
		return ""
	}
}

// Service implements the ChatService gRPC API: the conversation store,
// typing/online state, and relay fan-out of the resulting events.
type Service struct {
	appCtx        *app.AppContext
	profiles      *repository.ProfileRepository
	conversations *repository.ConversationRepository
}

func NewChatService(appCtx *app.AppContext) *Service {
	opt := repository.WithTimeout(appCtx.Config.DB.Timeout)
	return &Service{
		appCtx:        appCtx,
		profiles:      repository.NewProfileRepository(appCtx.DB, opt),
		conversations: repository.NewConversationRepository(appCtx.DB, opt),
	}
}

// SendMessage appends a message and refreshes the conversation summary.
//
// Behavior:
//   - Structurally invalid ids, sender == receiver, or neither text nor
//     mediaUrl → InvalidArgument.
//   - Appends to one conversation are serialized.
//   - Participant snapshots come from the current profiles ("Unknown" when
//     a profile is missing).
//   - On success a receiveMessage event goes to the conversation room.
//
// Example:
//
//	svc.SendMessage(ctx, &api.SendMessageRequest{ConversationID: "a_b", SenderID: "a", ReceiverID: "b", Text: &hi})
func (s *Service) SendMessage(ctx context.Context, req *api.SendMessageRequest) (*api.SendMessageResponse, error) {
	s.appCtx.Logger.Debug("SendMessage called", "conversation", req.ConversationID, "sender", req.SenderID, "type", req.Type)

	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	text := trimmed(req.Text)
	media := trimmed(req.MediaURL)
	if text == nil && media == nil {
		return nil, svcErr.InvalidArgument("text or mediaUrl is required")
	}
	msgType := req.Type
	if msgType == "" {
		msgType = TypeText
	}

	unlock := s.appCtx.Locks.Lock("conv:" + req.ConversationID)
	defer unlock()

	profiles, err := s.profiles.GetMany(ctx, []string{req.SenderID, req.ReceiverID})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	sender := snapshot(req.SenderID, profiles[req.SenderID])
	receiver := snapshot(req.ReceiverID, profiles[req.ReceiverID])

	msg := &db.Message{
		ID:             uuid.NewString(),
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		Text:           text,
		Type:           msgType,
		MediaURL:       media,
		SentAt:         s.appCtx.Clock(),
	}
	lastMessage := Placeholder(msgType)
	if text != nil {
		lastMessage = *text
	}

	conv, err := s.conversations.Append(ctx, msg, lastMessage, sender, receiver)
	if err != nil {
		s.appCtx.Logger.Error("append message failed", "conversation", req.ConversationID, "err", err)
		return nil, svcErr.Map(err)
	}

	out := api.MessageFromModel(msg)
	s.publish(ctx, realtime.EventReceiveMessage, req.ConversationID, req.Origin, out)

	return &api.SendMessageResponse{
		Message:      out,
		Conversation: api.ConversationFromModel(conv),
	}, nil
}

// ListMessages returns the history ascending by time. Malformed or unknown
// conversation ids read as empty.
func (s *Service) ListMessages(ctx context.Context, req *api.ListMessagesRequest) (*api.ListMessagesResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.ListMessagesResponse{Messages: []api.Message{}}
	if !validate.ConversationID(req.ConversationID) {
		return resp, nil
	}

	cursor, err := pagination.Decode(req.PageToken)
	if err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}

	msgs, next, err := s.conversations.Messages(ctx, req.ConversationID, cursor, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	for i := range msgs {
		resp.Messages = append(resp.Messages, api.MessageFromModel(&msgs[i]))
	}
	resp.NextPageToken = next
	return resp, nil
}

// ResetUnread zeroes the user's unread counter and stamps lastRead.
// Unknown conversations are a no-op.
func (s *Service) ResetUnread(ctx context.Context, req *api.ConversationRequest) (*api.Empty, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if !validate.ConversationID(req.ConversationID) {
		return nil, svcErr.InvalidArgument("invalid conversation id")
	}

	if err := s.conversations.ResetUnread(ctx, req.ConversationID, req.UserID, s.appCtx.Clock()); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

// CanJoin checks that userID may subscribe to the conversation room.
// A conversation that does not exist yet is open: its first message creates
// it. An existing one is reserved to its two participants.
func (s *Service) CanJoin(ctx context.Context, conversationID, userID string) error {
	if !validate.ConversationID(conversationID) {
		return svcErr.InvalidArgument("invalid conversation id")
	}

	conv, err := s.conversations.Get(ctx, conversationID)
	if errors.Is(err, svcErr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return svcErr.Map(err)
	}
	if conv.Participant(userID) == nil {
		return svcErr.PermissionDenied("not a participant of " + conversationID)
	}
	return nil
}

// ListConversations returns the user's conversations, most recent first,
// each described from the user's side.
func (s *Service) ListConversations(ctx context.Context, req *api.UserRequest) (*api.ListConversationsResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}

	convs, err := s.conversations.ForUser(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &api.ListConversationsResponse{Conversations: make([]api.ConversationEntry, 0, len(convs))}
	for i := range convs {
		c := &convs[i]
		entry := api.ConversationEntry{
			ID:              c.ID,
			LastMessage:     c.LastMessage,
			LastMessageTime: c.LastMessageTime,
		}
		if me := c.Participant(req.UserID); me != nil {
			entry.UnreadCount = me.UnreadCount
		}
		if other := c.Other(req.UserID); other != nil {
			entry.OtherUserID = other.UserID
			entry.OtherUserName = other.UserName
			entry.OtherUserPhoto = other.UserPhoto
		}
		resp.Conversations = append(resp.Conversations, entry)
	}
	return resp, nil
}

// TotalUnread sums the user's unread counters.
func (s *Service) TotalUnread(ctx context.Context, req *api.UserRequest) (*api.CountResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.conversations.TotalUnread(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CountResponse{Count: n}, nil
}

// SetTyping stores the flag and tells the rest of the room.
func (s *Service) SetTyping(ctx context.Context, req *api.SetTypingRequest) (*api.Empty, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.appCtx.Presence.SetTyping(ctx, req.ConversationID, req.UserID, req.IsTyping); err != nil {
		s.appCtx.Logger.Error("set typing failed", "conversation", req.ConversationID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.publish(ctx, realtime.EventTypingStatus, req.ConversationID, req.Origin, realtime.TypingPayload{
		UserID:   req.UserID,
		IsTyping: req.IsTyping,
	})
	return &api.Empty{}, nil
}

// GetTyping reads the flag; false when unset, expired or the id is malformed.
func (s *Service) GetTyping(ctx context.Context, req *api.ConversationRequest) (*api.TypingResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if !validate.ConversationID(req.ConversationID) {
		return &api.TypingResponse{}, nil
	}

	typing, err := s.appCtx.Presence.GetTyping(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.TypingResponse{IsTyping: typing}, nil
}

// GetOnlineStatus reports whether the user has a live relay connection.
func (s *Service) GetOnlineStatus(ctx context.Context, req *api.UserRequest) (*api.OnlineResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	online, err := s.appCtx.Presence.IsOnline(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.OnlineResponse{Online: online}, nil
}

// publish is best effort: the write already happened, a lost event only
// costs the live update.
func (s *Service) publish(ctx context.Context, typ, conversationID, origin string, payload any) {
	evt, err := realtime.NewEvent(typ, conversationID, payload)
	if err != nil {
		s.appCtx.Logger.Error("build event failed", "type", typ, "err", err)
		return
	}
	evt.Origin = origin
	if err := s.appCtx.Publisher.Publish(ctx, evt); err != nil {
		s.appCtx.Logger.Warn("publish event failed", "type", typ, "conversation", conversationID, "err", err)
	}
}

func snapshot(userID string, u *db.User) repository.Snapshot {
	return repository.Snapshot{UserID: userID, Name: u.DisplayName(), Photo: u.Avatar()}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	if strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
