package server_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/server"
	"github.com/oggyb/connecta/internal/service/chat"
	"github.com/oggyb/connecta/internal/service/interest"
	"github.com/oggyb/connecta/internal/service/matching"
	"github.com/oggyb/connecta/internal/service/notification"
	"github.com/oggyb/connecta/internal/testutil"
)

// dialServer serves every service over an in-memory listener and returns a
// client connection that speaks the JSON codec.
func dialServer(t *testing.T) (*grpc.ClientConn, *testutil.Env) {
	t.Helper()
	env := testutil.New(t)
	env.Seed(t, testutil.User("a", "Ada"), testutil.User("b", "Ben"))

	s := server.NewGRPCServer(env.App.Logger,
		matching.NewRegistrar(env.App),
		interest.NewRegistrar(env.App),
		chat.NewRegistrar(chat.NewChatService(env.App)),
		notification.NewRegistrar(env.App),
	)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, env
}

func invoke(ctx context.Context, conn *grpc.ClientConn, service, method string, req, resp any) error {
	return conn.Invoke(ctx, api.FullMethod(service, method), req, resp)
}

func TestGRPC_LikeRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, _ := dialServer(t)

	var resp api.LikeResponse
	require.NoError(t, invoke(ctx, conn, api.InterestServiceName, "Like", &api.LikeRequest{UserID: "a", TargetID: "b"}, &resp))
	assert.False(t, resp.IsMatch)

	require.NoError(t, invoke(ctx, conn, api.InterestServiceName, "Like", &api.LikeRequest{UserID: "b", TargetID: "a"}, &resp))
	assert.True(t, resp.IsMatch)

	var count api.CountResponse
	require.NoError(t, invoke(ctx, conn, api.InterestServiceName, "CountLikeRequests", &api.UserRequest{UserID: "a"}, &count))
	assert.Zero(t, count.Count)
}

func TestGRPC_ChatAndFeed(t *testing.T) {
	ctx := context.Background()
	conn, _ := dialServer(t)

	text := "hello"
	var sent api.SendMessageResponse
	require.NoError(t, invoke(ctx, conn, api.ChatServiceName, "SendMessage", &api.SendMessageRequest{
		ConversationID: "a_b", SenderID: "a", ReceiverID: "b", Text: &text,
	}, &sent))
	assert.Equal(t, "a_b", sent.Conversation.ID)

	var feed api.FeedResponse
	require.NoError(t, invoke(ctx, conn, api.NotificationServiceName, "BuildFeed", &api.UserRequest{UserID: "b"}, &feed))
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, "message-a_b", feed.Notifications[0].ID)

	var matches api.FindMatchesResponse
	require.NoError(t, invoke(ctx, conn, api.MatchServiceName, "FindMatches", &api.FindMatchesRequest{UserID: "a"}, &matches))
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, "b", matches.Matches[0].ID)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	conn, _ := dialServer(t)

	var resp api.FindMatchesResponse
	err := invoke(ctx, conn, api.MatchServiceName, "FindMatches", &api.FindMatchesRequest{UserID: "ghost"}, &resp)
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = invoke(ctx, conn, api.MatchServiceName, "Nope", &api.FindMatchesRequest{}, &resp)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestGRPC_Health(t *testing.T) {
	conn, _ := dialServer(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
