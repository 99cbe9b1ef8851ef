package matching

import (
	"context"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/app"
	svcErr "github.com/oggyb/connecta/internal/errors"
	"github.com/oggyb/connecta/internal/matcher"
	"github.com/oggyb/connecta/internal/repository"
	"github.com/oggyb/connecta/internal/utils/validate"
)

// Service implements the MatchService gRPC API on top of the profile store
// and the pure matcher.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
}

func NewMatchService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB, repository.WithTimeout(appCtx.Config.DB.Timeout)),
	}
}

// FindMatches returns the candidates compatible with the requester.
//
// Behavior:
//   - Unknown requester → NotFound.
//   - Malformed minAge/maxAge → InvalidArgument.
//   - Everything is recomputed from the current profiles; nothing is cached.
//
// Example:
//
//	svc.FindMatches(ctx, &api.FindMatchesRequest{UserID: "u1", MinAge: "25"})
func (s *Service) FindMatches(ctx context.Context, req *api.FindMatchesRequest) (*api.FindMatchesResponse, error) {
	s.appCtx.Logger.Debug("FindMatches called", "user", req.UserID, "search", req.Search, "location", req.Location)

	if err := validate.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}

	requester, err := s.profiles.Get(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	pool, err := s.profiles.GetAll(ctx)
	if err != nil {
		s.appCtx.Logger.Error("load candidate pool failed", "err", err)
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock()
	matches, err := matcher.Find(requester, pool, matcher.Filters{
		Search:   req.Search,
		MinAge:   req.MinAge,
		MaxAge:   req.MaxAge,
		Gender:   req.Gender,
		Location: req.Location,
	}, now)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &api.FindMatchesResponse{Matches: make([]api.Profile, 0, len(matches))}
	for i := range matches {
		resp.Matches = append(resp.Matches, api.ProfileFromUser(&matches[i], now))
	}

	s.appCtx.Logger.Debug("FindMatches result", "user", req.UserID, "pool", len(pool), "matches", len(resp.Matches))
	return resp, nil
}
