package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/db"
	"github.com/oggyb/connecta/internal/service/chat"
	"github.com/oggyb/connecta/internal/service/interest"
	"github.com/oggyb/connecta/internal/service/notification"
	"github.com/oggyb/connecta/internal/testutil"
)

type fixture struct {
	env      *testutil.Env
	feed     *notification.Service
	chat     *chat.Service
	interest *interest.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := testutil.New(t)
	env.Seed(t,
		testutil.User("me", "Mia"),
		testutil.User("liker", "Lou"),
		testutil.User("mutual", "Max"),
		testutil.User("writer", "Wes"),
		testutil.User("gone", "Gus"),
	)
	return &fixture{
		env:      env,
		feed:     notification.NewNotificationService(env.App),
		chat:     chat.NewChatService(env.App),
		interest: interest.NewInterestService(env.App),
	}
}

func (f *fixture) like(t *testing.T, actor, target string) {
	t.Helper()
	_, err := f.interest.Like(context.Background(), &api.LikeRequest{UserID: actor, TargetID: target})
	require.NoError(t, err)
	f.env.Advance(time.Minute)
}

func (f *fixture) send(t *testing.T, from, to, text string) {
	t.Helper()
	_, err := f.chat.SendMessage(context.Background(), &api.SendMessageRequest{
		ConversationID: chat.ConversationID(from, to),
		SenderID:       from,
		ReceiverID:     to,
		Text:           &text,
	})
	require.NoError(t, err)
	f.env.Advance(time.Minute)
}

func TestBuildFeed(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.like(t, "liker", "me")  // pending → like entry
	f.like(t, "mutual", "me") // returned below → no entry
	f.like(t, "me", "mutual")
	f.send(t, "writer", "me", "hey")
	f.send(t, "writer", "me", "you there?")
	f.like(t, "gone", "me") // profile deleted → skipped
	require.NoError(t, f.env.DB.Delete(&db.User{}, "id = ?", "gone").Error)

	resp, err := f.feed.BuildFeed(ctx, &api.UserRequest{UserID: "me"})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 2)

	msg := resp.Notifications[0]
	assert.Equal(t, "message-me_writer", msg.ID)
	assert.Equal(t, api.NotificationMessage, msg.Type)
	assert.Equal(t, "Wes Test", msg.Name)
	assert.Equal(t, "https://img.test/writer.jpg", msg.Avatar)
	assert.Equal(t, "you there?", msg.LastMessage)
	assert.Equal(t, int64(2), msg.UnreadCount)

	like := resp.Notifications[1]
	assert.Equal(t, "like-liker", like.ID)
	assert.Equal(t, api.NotificationLike, like.Type)
	assert.Equal(t, "Lou Test", like.Name)
}

func TestBuildFeed_UsesLiveProfile(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.send(t, "writer", "me", "hi")
	require.NoError(t, f.env.DB.Model(&db.User{}).Where("id = ?", "writer").Update("first_name", "Wesley").Error)

	resp, err := f.feed.BuildFeed(ctx, &api.UserRequest{UserID: "me"})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Wesley Test", resp.Notifications[0].Name)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.send(t, "writer", "me", "hi")

	_, err := f.feed.MarkRead(ctx, &api.MarkReadRequest{UserID: "me", ConversationID: "me_writer"})
	require.NoError(t, err)

	resp, _ := f.feed.BuildFeed(ctx, &api.UserRequest{UserID: "me"})
	require.Len(t, resp.Notifications, 1)
	assert.Zero(t, resp.Notifications[0].UnreadCount)

	_, err = f.feed.MarkRead(ctx, &api.MarkReadRequest{UserID: "me"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBuildFeed_Empty(t *testing.T) {
	f := setup(t)
	resp, err := f.feed.BuildFeed(context.Background(), &api.UserRequest{UserID: "me"})
	require.NoError(t, err)
	assert.Empty(t, resp.Notifications)
}
