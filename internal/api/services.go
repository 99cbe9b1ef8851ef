package api

import (
	"context"

	"google.golang.org/grpc"
)

// Service names as exposed over gRPC.
const (
	MatchServiceName        = "connecta.v1.MatchService"
	InterestServiceName     = "connecta.v1.InterestService"
	ChatServiceName         = "connecta.v1.ChatService"
	NotificationServiceName = "connecta.v1.NotificationService"
)

// unary builds a MethodDesc around a typed handler so the descriptors below
// read like generated code without a .proto file.
func unary[S any, Req any, Resp any](
	service, method string,
	fn func(S, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(service, method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod returns "/service/method", the path clients invoke.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

//
// MatchService
//

type MatchServiceServer interface {
	FindMatches(context.Context, *FindMatchesRequest) (*FindMatchesResponse, error)
}

var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MatchServiceName, "FindMatches", MatchServiceServer.FindMatches),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "connecta/v1/match",
}

func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&MatchServiceDesc, srv)
}

//
// InterestService
//

type InterestServiceServer interface {
	Like(context.Context, *LikeRequest) (*LikeResponse, error)
	Favorite(context.Context, *FavoriteRequest) (*Empty, error)
	Unfavorite(context.Context, *FavoriteRequest) (*Empty, error)
	ListLikes(context.Context, *UserRequest) (*ListLikesResponse, error)
	ListFavorites(context.Context, *UserRequest) (*ListFavoritesResponse, error)
	CountLikeRequests(context.Context, *UserRequest) (*CountResponse, error)
}

var InterestServiceDesc = grpc.ServiceDesc{
	ServiceName: InterestServiceName,
	HandlerType: (*InterestServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(InterestServiceName, "Like", InterestServiceServer.Like),
		unary(InterestServiceName, "Favorite", InterestServiceServer.Favorite),
		unary(InterestServiceName, "Unfavorite", InterestServiceServer.Unfavorite),
		unary(InterestServiceName, "ListLikes", InterestServiceServer.ListLikes),
		unary(InterestServiceName, "ListFavorites", InterestServiceServer.ListFavorites),
		unary(InterestServiceName, "CountLikeRequests", InterestServiceServer.CountLikeRequests),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "connecta/v1/interest",
}

func RegisterInterestServiceServer(s grpc.ServiceRegistrar, srv InterestServiceServer) {
	s.RegisterService(&InterestServiceDesc, srv)
}

//
// ChatService
//

type ChatServiceServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	ResetUnread(context.Context, *ConversationRequest) (*Empty, error)
	ListConversations(context.Context, *UserRequest) (*ListConversationsResponse, error)
	TotalUnread(context.Context, *UserRequest) (*CountResponse, error)
	SetTyping(context.Context, *SetTypingRequest) (*Empty, error)
	GetTyping(context.Context, *ConversationRequest) (*TypingResponse, error)
	GetOnlineStatus(context.Context, *UserRequest) (*OnlineResponse, error)
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChatServiceName, "SendMessage", ChatServiceServer.SendMessage),
		unary(ChatServiceName, "ListMessages", ChatServiceServer.ListMessages),
		unary(ChatServiceName, "ResetUnread", ChatServiceServer.ResetUnread),
		unary(ChatServiceName, "ListConversations", ChatServiceServer.ListConversations),
		unary(ChatServiceName, "TotalUnread", ChatServiceServer.TotalUnread),
		unary(ChatServiceName, "SetTyping", ChatServiceServer.SetTyping),
		unary(ChatServiceName, "GetTyping", ChatServiceServer.GetTyping),
		unary(ChatServiceName, "GetOnlineStatus", ChatServiceServer.GetOnlineStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "connecta/v1/chat",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

//
// NotificationService
//

type NotificationServiceServer interface {
	BuildFeed(context.Context, *UserRequest) (*FeedResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*Empty, error)
}

var NotificationServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(NotificationServiceName, "BuildFeed", NotificationServiceServer.BuildFeed),
		unary(NotificationServiceName, "MarkRead", NotificationServiceServer.MarkRead),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "connecta/v1/notification",
}

func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServiceServer) {
	s.RegisterService(&NotificationServiceDesc, srv)
}
