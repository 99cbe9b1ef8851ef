package notification

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/app"
	"github.com/oggyb/connecta/internal/db"
	svcErr "github.com/oggyb/connecta/internal/errors"
	"github.com/oggyb/connecta/internal/repository"
	"github.com/oggyb/connecta/internal/utils/validate"
)

// Service implements the NotificationService gRPC API. The feed is derived
// from likes and conversations on every call; it is never stored.
type Service struct {
	appCtx        *app.AppContext
	profiles      *repository.ProfileRepository
	interests     *repository.InterestRepository
	conversations *repository.ConversationRepository
}

func NewNotificationService(appCtx *app.AppContext) *Service {
	opt := repository.WithTimeout(appCtx.Config.DB.Timeout)
	return &Service{
		appCtx:        appCtx,
		profiles:      repository.NewProfileRepository(appCtx.DB, opt),
		interests:     repository.NewInterestRepository(appCtx.DB, opt),
		conversations: repository.NewConversationRepository(appCtx.DB, opt),
	}
}

// BuildFeed merges pending likes and conversations into one list.
//
// Behavior:
//   - One "like" entry per inbound like the user has not returned.
//   - One "message" entry per conversation, using the other participant's
//     current profile rather than the snapshot.
//   - Entries whose profile is missing are skipped.
//   - Sorted by timestamp desc.
func (s *Service) BuildFeed(ctx context.Context, req *api.UserRequest) (*api.FeedResponse, error) {
	s.appCtx.Logger.Debug("BuildFeed called", "user", req.UserID)

	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}

	var (
		pending []db.LikeEdge
		convs   []db.Conversation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pending, err = s.interests.PendingLikes(gctx, req.UserID)
		return err
	})
	g.Go(func() (err error) {
		convs, err = s.conversations.ForUser(gctx, req.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.appCtx.Logger.Error("BuildFeed failed", "user", req.UserID, "err", err)
		return nil, svcErr.Map(err)
	}

	ids := make([]string, 0, len(pending)+len(convs))
	for _, e := range pending {
		ids = append(ids, e.ActorID)
	}
	for i := range convs {
		if other := convs[i].Other(req.UserID); other != nil {
			ids = append(ids, other.UserID)
		}
	}
	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	feed := make([]api.Notification, 0, len(ids))
	for _, e := range pending {
		u, ok := profiles[e.ActorID]
		if !ok {
			continue
		}
		feed = append(feed, api.Notification{
			ID:        "like-" + e.ActorID,
			Type:      api.NotificationLike,
			UserID:    e.ActorID,
			Name:      fullName(u),
			Avatar:    u.Avatar(),
			Timestamp: e.LikedAt,
		})
	}
	for i := range convs {
		c := &convs[i]
		other := c.Other(req.UserID)
		if other == nil {
			continue
		}
		u, ok := profiles[other.UserID]
		if !ok {
			continue
		}
		n := api.Notification{
			ID:             "message-" + c.ID,
			Type:           api.NotificationMessage,
			UserID:         other.UserID,
			Name:           fullName(u),
			Avatar:         u.Avatar(),
			ConversationID: c.ID,
			LastMessage:    c.LastMessage,
			Timestamp:      c.LastMessageTime,
		}
		if me := c.Participant(req.UserID); me != nil {
			n.UnreadCount = me.UnreadCount
		}
		feed = append(feed, n)
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp.After(feed[j].Timestamp) })

	return &api.FeedResponse{Notifications: feed}, nil
}

// MarkRead clears the unread counter of one conversation for the user.
func (s *Service) MarkRead(ctx context.Context, req *api.MarkReadRequest) (*api.Empty, error) {
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

func fullName(u *db.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
