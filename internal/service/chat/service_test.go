package chat_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/db"
	"github.com/oggyb/connecta/internal/realtime"
	"github.com/oggyb/connecta/internal/service/chat"
	"github.com/oggyb/connecta/internal/testutil"
)

// setupService seeds a, b and c. c has no first name and no photos.
func setupService(t *testing.T) (*chat.Service, *testutil.Env) {
	t.Helper()
	env := testutil.New(t)

	c := testutil.User("c", "")
	c.Photos = nil
	env.Seed(t, testutil.User("a", "Ada"), testutil.User("b", "Ben"), c)

	return chat.NewChatService(env.App), env
}

func str(s string) *string { return &s }

func send(t *testing.T, svc *chat.Service, from, to, text string) *api.SendMessageResponse {
	t.Helper()
	resp, err := svc.SendMessage(context.Background(), &api.SendMessageRequest{
		ConversationID: chat.ConversationID(from, to),
		SenderID:       from,
		ReceiverID:     to,
		Text:           str(text),
	})
	require.NoError(t, err)
	return resp
}

func unread(resp *api.SendMessageResponse, user string) int64 {
	for _, p := range resp.Conversation.Participants {
		if p.UserID == user {
			return p.UnreadCount
		}
	}
	return -1
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "a_b", chat.ConversationID("a", "b"))
	assert.Equal(t, "a_b", chat.ConversationID("b", "a"))
}

func TestSendMessage_FirstMessage(t *testing.T) {
	svc, _ := setupService(t)

	resp := send(t, svc, "a", "b", "hello")

	assert.Equal(t, "a_b", resp.Conversation.ID)
	assert.Equal(t, "hello", resp.Conversation.LastMessage)
	assert.True(t, resp.Conversation.CreatedAt.Equal(resp.Conversation.LastMessageTime))
	assert.True(t, resp.Conversation.CreatedAt.Equal(testutil.Start))
	assert.Equal(t, int64(0), unread(resp, "a"))
	assert.Equal(t, int64(1), unread(resp, "b"))

	assert.NotEmpty(t, resp.Message.ID)
	assert.Equal(t, chat.TypeText, resp.Message.Type)
	assert.Equal(t, "Ada", resp.Conversation.Participants[0].Name)
	assert.Equal(t, "https://img.test/a.jpg", resp.Conversation.Participants[0].Photo)
}

func TestSendMessage_UnreadAccounting(t *testing.T) {
	svc, env := setupService(t)

	send(t, svc, "a", "b", "1")
	env.Advance(time.Second)
	send(t, svc, "a", "b", "2")
	env.Advance(time.Second)
	resp := send(t, svc, "a", "b", "3")
	assert.Equal(t, int64(3), unread(resp, "b"))

	env.Advance(time.Second)
	resp = send(t, svc, "b", "a", "reply")
	assert.Equal(t, int64(0), unread(resp, "b"), "sender's counter is reset")
	assert.Equal(t, int64(1), unread(resp, "a"))
	assert.True(t, resp.Conversation.CreatedAt.Equal(testutil.Start))
}

func TestSendMessage_MediaPlaceholderAndSnapshotFallback(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	resp, err := svc.SendMessage(ctx, &api.SendMessageRequest{
		ConversationID: chat.ConversationID("a", "c"),
		SenderID:       "c",
		ReceiverID:     "a",
		Type:           chat.TypeImage,
		MediaURL:       str("https://img.test/x.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "📷 Photo", resp.Conversation.LastMessage)
	assert.Nil(t, resp.Message.Text)

	for _, p := range resp.Conversation.Participants {
		if p.UserID == "c" {
			assert.Equal(t, "Unknown", p.Name)
			assert.Equal(t, "", p.Photo)
		}
	}

	resp, err = svc.SendMessage(ctx, &api.SendMessageRequest{
		ConversationID: chat.ConversationID("a", "c"),
		SenderID:       "a",
		ReceiverID:     "c",
		Type:           chat.TypeVideo,
		MediaURL:       str("https://img.test/x.mp4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "🎥 Video", resp.Conversation.LastMessage)
}

func TestSendMessage_Invalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	cases := []*api.SendMessageRequest{
		{ConversationID: "", SenderID: "a", ReceiverID: "b", Text: str("x")},
		{ConversationID: "a/b", SenderID: "a", ReceiverID: "b", Text: str("x")},
		{ConversationID: "a b", SenderID: "a", ReceiverID: "b", Text: str("x")},
		{ConversationID: "a_b", SenderID: "a", ReceiverID: "a", Text: str("x")},
		{ConversationID: "a_b", SenderID: "a", ReceiverID: "b"},
		{ConversationID: "a_b", SenderID: "a", ReceiverID: "b", Text: str("   ")},
	}
	for i, req := range cases {
		_, err := svc.SendMessage(ctx, req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "case %d", i)
	}

	// established conversation with a different pair
	send(t, svc, "a", "b", "hi")
	_, err := svc.SendMessage(ctx, &api.SendMessageRequest{
		ConversationID: "a_b", SenderID: "a", ReceiverID: "c", Text: str("x"),
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSendMessage_ConcurrentAppendsKeepCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.SendMessage(ctx, &api.SendMessageRequest{
				ConversationID: "a_b",
				SenderID:       "a",
				ReceiverID:     "b",
				Text:           str(fmt.Sprintf("m%d", i)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	total, err := svc.TotalUnread(ctx, &api.UserRequest{UserID: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(n), total.Count)

	msgs, err := svc.ListMessages(ctx, &api.ListMessagesRequest{ConversationID: "a_b"})
	require.NoError(t, err)
	assert.Len(t, msgs.Messages, n)
}

func TestListMessages(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	send(t, svc, "a", "b", "first")
	env.Advance(time.Second)
	send(t, svc, "b", "a", "second")
	// same instant: insertion order breaks the tie
	send(t, svc, "a", "b", "third")

	resp, err := svc.ListMessages(ctx, &api.ListMessagesRequest{ConversationID: "a_b"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 3)
	assert.Equal(t, "first", *resp.Messages[0].Text)
	assert.Equal(t, "second", *resp.Messages[1].Text)
	assert.Equal(t, "third", *resp.Messages[2].Text)

	page, err := svc.ListMessages(ctx, &api.ListMessagesRequest{ConversationID: "a_b", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	require.NotNil(t, page.NextPageToken)

	page, err = svc.ListMessages(ctx, &api.ListMessagesRequest{ConversationID: "a_b", Limit: 2, PageToken: *page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "third", *page.Messages[0].Text)
	assert.Nil(t, page.NextPageToken)

	for _, id := range []string{"none_here", "bad/id", ""} {
		empty, err := svc.ListMessages(ctx, &api.ListMessagesRequest{ConversationID: id})
		require.NoError(t, err)
		assert.Empty(t, empty.Messages)
	}

	_, err = svc.ListMessages(ctx, &api.ListMessagesRequest{ConversationID: "a_b", PageToken: "%%%"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestResetUnread(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	send(t, svc, "a", "b", "1")
	send(t, svc, "a", "b", "2")
	env.Advance(time.Minute)

	req := &api.ConversationRequest{ConversationID: "a_b", UserID: "b"}
	_, err := svc.ResetUnread(ctx, req)
	require.NoError(t, err)
	_, err = svc.ResetUnread(ctx, req)
	require.NoError(t, err, "idempotent")

	total, _ := svc.TotalUnread(ctx, &api.UserRequest{UserID: "b"})
	assert.Zero(t, total.Count)

	var p db.Participant
	require.NoError(t, env.DB.First(&p, "conversation_id = ? AND user_id = ?", "a_b", "b").Error)
	require.NotNil(t, p.LastReadAt)
	assert.True(t, p.LastReadAt.Equal(testutil.Start.Add(time.Minute)))

	_, err = svc.ResetUnread(ctx, &api.ConversationRequest{ConversationID: "x_y", UserID: "b"})
	require.NoError(t, err, "unknown conversation is a no-op")

	_, err = svc.ResetUnread(ctx, &api.ConversationRequest{ConversationID: "x/y", UserID: "b"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	send(t, svc, "a", "b", "old")
	env.Advance(time.Minute)
	send(t, svc, "c", "b", "new")

	resp, err := svc.ListConversations(ctx, &api.UserRequest{UserID: "b"})
	require.NoError(t, err)
	require.Len(t, resp.Conversations, 2)

	first := resp.Conversations[0]
	assert.Equal(t, "b_c", first.ID)
	assert.Equal(t, "c", first.OtherUserID)
	assert.Equal(t, "Unknown", first.OtherUserName)
	assert.Equal(t, "new", first.LastMessage)
	assert.Equal(t, int64(1), first.UnreadCount)

	assert.Equal(t, "a", resp.Conversations[1].OtherUserID)
	assert.Equal(t, "Ada", resp.Conversations[1].OtherUserName)

	none, err := svc.ListConversations(ctx, &api.UserRequest{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none.Conversations)
}

func TestSendMessage_PublishesToRoom(t *testing.T) {
	svc, env := setupService(t)

	inRoom := env.App.Relay.Connect("b")
	outside := env.App.Relay.Connect("c")
	env.App.Relay.Join(inRoom, "a_b")

	send(t, svc, "a", "b", "live")

	select {
	case evt := <-inRoom.Outbox():
		assert.Equal(t, realtime.EventReceiveMessage, evt.Type)
		var msg api.Message
		require.NoError(t, json.Unmarshal(evt.Payload, &msg))
		assert.Equal(t, "live", *msg.Text)
	default:
		t.Fatal("joined connection got nothing")
	}

	select {
	case <-outside.Outbox():
		t.Fatal("connection outside the room received the event")
	default:
	}
}

func TestTyping(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	me := env.App.Relay.Connect("a")
	peer := env.App.Relay.Connect("b")
	env.App.Relay.Join(me, "a_b")
	env.App.Relay.Join(peer, "a_b")

	_, err := svc.SetTyping(ctx, &api.SetTypingRequest{ConversationID: "a_b", UserID: "a", IsTyping: true, Origin: me.ID})
	require.NoError(t, err)

	got, err := svc.GetTyping(ctx, &api.ConversationRequest{ConversationID: "a_b", UserID: "a"})
	require.NoError(t, err)
	assert.True(t, got.IsTyping)

	select {
	case evt := <-peer.Outbox():
		assert.Equal(t, realtime.EventTypingStatus, evt.Type)
		var p realtime.TypingPayload
		require.NoError(t, json.Unmarshal(evt.Payload, &p))
		assert.Equal(t, "a", p.UserID)
		assert.True(t, p.IsTyping)
	default:
		t.Fatal("peer did not get typingStatus")
	}
	select {
	case <-me.Outbox():
		t.Fatal("typing echoed to its origin")
	default:
	}

	// flag expires on its own
	env.Redis.FastForward(env.App.Config.Typing.TTL + time.Second)
	got, _ = svc.GetTyping(ctx, &api.ConversationRequest{ConversationID: "a_b", UserID: "a"})
	assert.False(t, got.IsTyping)

	_, err = svc.SetTyping(ctx, &api.SetTypingRequest{ConversationID: "a_b", UserID: "a", IsTyping: false})
	require.NoError(t, err)
	got, _ = svc.GetTyping(ctx, &api.ConversationRequest{ConversationID: "a_b", UserID: "b"})
	assert.False(t, got.IsTyping, "default is false")
}

func TestGetOnlineStatus(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	resp, err := svc.GetOnlineStatus(ctx, &api.UserRequest{UserID: "a"})
	require.NoError(t, err)
	assert.False(t, resp.Online)

	_, err = env.App.Presence.Connected(ctx, "a")
	require.NoError(t, err)
	resp, _ = svc.GetOnlineStatus(ctx, &api.UserRequest{UserID: "a"})
	assert.True(t, resp.Online)
}

func TestStorageFailureMapsToUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	env.Redis.Close()
	_, err := svc.GetTyping(ctx, &api.ConversationRequest{ConversationID: "a_b", UserID: "a"})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestCanJoin(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// not created yet: open to anyone
	require.NoError(t, svc.CanJoin(ctx, "a_b", "c"))

	send(t, svc, "a", "b", "hi")
	assert.NoError(t, svc.CanJoin(ctx, "a_b", "a"))
	assert.NoError(t, svc.CanJoin(ctx, "a_b", "b"))
	assert.Equal(t, codes.PermissionDenied, status.Code(svc.CanJoin(ctx, "a_b", "c")))
	assert.Equal(t, codes.InvalidArgument, status.Code(svc.CanJoin(ctx, "bad id", "a")))
}
