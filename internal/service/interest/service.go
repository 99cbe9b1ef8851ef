package interest

import (
	"context"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/app"
	"github.com/oggyb/connecta/internal/db"
	svcErr "github.com/oggyb/connecta/internal/errors"
	"github.com/oggyb/connecta/internal/repository"
	"github.com/oggyb/connecta/internal/utils/validate"
)

// likeRequestsTTL bounds how stale the cached pending-request badge can be.
const likeRequestsTTL = time.Hour

// Service implements the InterestService gRPC API: likes, favorites and
// the match / pending-request views derived from them.
type Service struct {
	appCtx    *app.AppContext
	profiles  *repository.ProfileRepository
	interests *repository.InterestRepository
}

func NewInterestService(appCtx *app.AppContext) *Service {
	opt := repository.WithTimeout(appCtx.Config.DB.Timeout)
	return &Service{
		appCtx:    appCtx,
		profiles:  repository.NewProfileRepository(appCtx.DB, opt),
		interests: repository.NewInterestRepository(appCtx.DB, opt),
	}
}

// Like records actor → target and reports whether it completed a match.
//
// Behavior:
//   - actor == target → InvalidArgument; unknown actor or target → NotFound.
//   - Non-premium actors with FreeQuota outbound likes already → ResourceExhausted,
//     even when re-liking someone they already liked.
//   - Quota check and write run under a per-actor lock.
//   - isMatch is true iff target → actor exists.
//
// Example:
//
//	svc.Like(ctx, &api.LikeRequest{UserID: "u1", TargetID: "u2"})
func (s *Service) Like(ctx context.Context, req *api.LikeRequest) (*api.LikeResponse, error) {
	s.appCtx.Logger.Debug("Like called", "actor", req.UserID, "target", req.TargetID)

	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if req.UserID == req.TargetID {
		return nil, svcErr.InvalidArgument("cannot like yourself")
	}

	actor, err := s.profiles.Get(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if _, err := s.profiles.Get(ctx, req.TargetID); err != nil {
		return nil, svcErr.Map(err)
	}

	unlock := s.appCtx.Locks.Lock("like:" + req.UserID)
	defer unlock()

	if !actor.IsPremium {
		sent, err := s.interests.CountSent(ctx, req.UserID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		if quota := int64(s.appCtx.Config.Likes.FreeQuota); sent >= quota {
			s.appCtx.Logger.Info("like quota exceeded", "actor", req.UserID, "sent", sent)
			return nil, svcErr.Map(svcErr.QuotaExceeded("free users can like up to " + strconv.FormatInt(quota, 10) + " profiles"))
		}
	}

	if err := s.interests.UpsertLike(ctx, req.UserID, req.TargetID, s.appCtx.Clock()); err != nil {
		s.appCtx.Logger.Error("UpsertLike failed", "err", err)
		return nil, svcErr.Map(err)
	}

	// both pending badges may change: target gains a request, actor may
	// have just answered one
	s.invalidateLikeRequests(ctx, req.TargetID, req.UserID)

	mutual, err := s.interests.HasLiked(ctx, req.TargetID, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if mutual {
		s.appCtx.Logger.Info("new match", "a", req.UserID, "b", req.TargetID)
	}
	return &api.LikeResponse{IsMatch: mutual}, nil
}

// Favorite bookmarks target for the user.
func (s *Service) Favorite(ctx context.Context, req *api.FavoriteRequest) (*api.Empty, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if req.UserID == req.TargetID {
		return nil, svcErr.InvalidArgument("cannot favorite yourself")
	}
	if _, err := s.profiles.Get(ctx, req.TargetID); err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.interests.UpsertFavorite(ctx, req.UserID, req.TargetID, s.appCtx.Clock()); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

// Unfavorite removes the bookmark. Idempotent.
func (s *Service) Unfavorite(ctx context.Context, req *api.FavoriteRequest) (*api.Empty, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.interests.DeleteFavorite(ctx, req.UserID, req.TargetID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

// ListLikes splits the user's edges into sent, received (pending) and mutual.
// Each list is joined with profiles and sorted by edge time desc; edges whose
// profile no longer exists are dropped.
func (s *Service) ListLikes(ctx context.Context, req *api.UserRequest) (*api.ListLikesResponse, error) {
	s.appCtx.Logger.Debug("ListLikes called", "user", req.UserID)

	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}

	var sent, received, mutual []db.LikeEdge
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sent, err = s.interests.SentLikes(gctx, req.UserID)
		return err
	})
	g.Go(func() (err error) {
		received, err = s.interests.PendingLikes(gctx, req.UserID)
		return err
	})
	g.Go(func() (err error) {
		mutual, err = s.interests.MutualLikes(gctx, req.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.appCtx.Logger.Error("ListLikes failed", "err", err)
		return nil, svcErr.Map(err)
	}

	ids := make([]string, 0, len(sent)+len(received)+len(mutual))
	for _, e := range sent {
		ids = append(ids, e.TargetID)
	}
	for _, e := range received {
		ids = append(ids, e.ActorID)
	}
	for _, e := range mutual {
		ids = append(ids, e.ActorID)
	}
	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock()
	join := func(edges []db.LikeEdge, other func(db.LikeEdge) string) []api.LikedProfile {
		out := make([]api.LikedProfile, 0, len(edges))
		for _, e := range edges {
			u, ok := profiles[other(e)]
			if !ok {
				continue
			}
			out = append(out, api.LikedProfile{Profile: api.ProfileFromUser(u, now), LikedAt: e.LikedAt})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].LikedAt.After(out[j].LikedAt) })
		return out
	}
	target := func(e db.LikeEdge) string { return e.TargetID }
	actor := func(e db.LikeEdge) string { return e.ActorID }

	return &api.ListLikesResponse{
		Sent:     join(sent, target),
		Received: join(received, actor),
		Mutual:   join(mutual, actor),
	}, nil
}

// ListFavorites returns the user's bookmarks joined with profiles, newest first.
func (s *Service) ListFavorites(ctx context.Context, req *api.UserRequest) (*api.ListFavoritesResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}

	favs, err := s.interests.Favorites(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.TargetID)
	}
	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock()
	resp := &api.ListFavoritesResponse{Favorites: make([]api.FavoriteProfile, 0, len(favs))}
	for _, f := range favs {
		u, ok := profiles[f.TargetID]
		if !ok {
			continue
		}
		resp.Favorites = append(resp.Favorites, api.FavoriteProfile{
			Profile:     api.ProfileFromUser(u, now),
			FavoritedAt: f.FavoritedAt,
		})
	}
	return resp, nil
}

// CountLikeRequests returns how many likes wait on the user.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:pending:userID).
//  2. On miss or parse error, falls back to the store.
//  3. Writes the store value back with a 1h TTL, unless a Like bumped the
//     key's generation while the store was being read.
func (s *Service) CountLikeRequests(ctx context.Context, req *api.UserRequest) (*api.CountResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}

	rc := s.appCtx.RedisCache
	key := rc.KeyForLikeRequests(req.UserID)
	genKey := rc.KeyForLikeRequestsGen(req.UserID)

	// try cache first
	if cached, ok, _ := rc.Get(ctx, key); ok {
		if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return &api.CountResponse{Count: n}, nil
		}
	}

	// the generation must be read before the store
	gen, genErr := rc.Generation(ctx, genKey)

	// fallback: DB
	count, err := s.interests.CountPending(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if genErr != nil {
		s.appCtx.Logger.Warn("read like requests generation failed", "user", req.UserID, "err", genErr)
		return &api.CountResponse{Count: count}, nil
	}
	if _, err := rc.SetIfGeneration(ctx, key, genKey, gen, strconv.FormatInt(count, 10), likeRequestsTTL); err != nil {
		s.appCtx.Logger.Warn("cache like requests failed", "user", req.UserID, "err", err)
	}
	return &api.CountResponse{Count: count}, nil
}

func (s *Service) invalidateLikeRequests(ctx context.Context, userIDs ...string) {
	rc := s.appCtx.RedisCache
	for _, id := range userIDs {
		if err := rc.Invalidate(ctx, rc.KeyForLikeRequests(id), rc.KeyForLikeRequestsGen(id)); err != nil {
			s.appCtx.Logger.Warn("invalidate like requests failed", "user", id, "err", err)
		}
	}
}
