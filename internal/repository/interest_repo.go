package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/connecta/internal/db"
)

// InterestRepository provides data access for like and favorite edges.
// Matches and pending requests are derived here with EXISTS / NOT EXISTS
// over the reverse edge; nothing derived is ever stored.
type InterestRepository struct {
	base
}

// NewInterestRepository creates a new repository bound to the given DB connection.
func NewInterestRepository(database *gorm.DB, opts ...Option) *InterestRepository {
	return &InterestRepository{base: newBase(database, opts)}
}

// UpsertLike writes actor -> target.
//
// Behavior:
//   - If the (actor_id, target_id) pair exists → liked_at is refreshed.
//   - If it doesn’t exist → a new row is inserted.
//   - Composite PK ensures at most one edge per ordered pair.
//
// Example:
//
//	repo.UpsertLike(ctx, "u1", "u2", now) // u1 liked u2
func (r *InterestRepository) UpsertLike(ctx context.Context, actorID, targetID string, at time.Time) error {
	conn, cancel := r.conn(ctx)
	defer cancel()

	edge := db.LikeEdge{
		ActorID:  actorID,
		TargetID: targetID,
		Value:    true,
		LikedAt:  at,
	}
	err := conn.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "liked_at"}),
		}).
		Create(&edge).Error
	return wrap("upsert like", err)
}

// HasLiked checks whether actor has a like edge towards target.
//
// Example:
//
//	repo.HasLiked(ctx, "u1", "u2") // -> true if u1 liked u2
func (r *InterestRepository) HasLiked(ctx context.Context, actorID, targetID string) (bool, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := conn.Model(&db.LikeEdge{}).
		Where("actor_id = ? AND target_id = ? AND value = ?", actorID, targetID, true).
		Count(&count).Error
	return count > 0, wrap("check like", err)
}

// CountSent returns how many outbound like edges actor has. Used by the
// free-tier quota check.
func (r *InterestRepository) CountSent(ctx context.Context, actorID string) (int64, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := conn.Model(&db.LikeEdge{}).Where("actor_id = ?", actorID).Count(&count).Error
	return count, wrap("count sent likes", err)
}

// SentLikes returns all outbound edges of user, newest first.
func (r *InterestRepository) SentLikes(ctx context.Context, userID string) ([]db.LikeEdge, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var edges []db.LikeEdge
	err := conn.
		Where("actor_id = ?", userID).
		Order("liked_at DESC, target_id ASC").
		Find(&edges).Error
	return edges, wrap("list sent likes", err)
}

// PendingLikes returns inbound edges whose actor the user has not liked back.
//
// Behavior:
//   - Only edges where target_id = user are considered.
//   - Excludes mutual likes (user already has an edge towards the actor).
//   - Ordered by liked_at DESC, actor_id ASC.
func (r *InterestRepository) PendingLikes(ctx context.Context, userID string) ([]db.LikeEdge, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var edges []db.LikeEdge
	err := r.inbound(conn, userID, false).
		Order("d.liked_at DESC, d.actor_id ASC").
		Find(&edges).Error
	return edges, wrap("list pending likes", err)
}

// MutualLikes returns inbound edges whose actor the user also liked.
// Ordered by the inbound edge's liked_at DESC.
func (r *InterestRepository) MutualLikes(ctx context.Context, userID string) ([]db.LikeEdge, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var edges []db.LikeEdge
	err := r.inbound(conn, userID, true).
		Order("d.liked_at DESC, d.actor_id ASC").
		Find(&edges).Error
	return edges, wrap("list mutual likes", err)
}

// CountPending returns how many like requests are waiting on the user.
func (r *InterestRepository) CountPending(ctx context.Context, userID string) (int64, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := r.inbound(conn, userID, false).Count(&count).Error
	return count, wrap("count pending likes", err)
}

// inbound builds the "edges towards user" query, keeping only edges whose
// reverse edge exists (mutual) or is absent (pending).
func (r *InterestRepository) inbound(conn *gorm.DB, userID string, mutual bool) *gorm.DB {
	reverse := conn.Session(&gorm.Session{NewDB: true}).
		Table("like_edges r").
		Select("1").
		Where("r.actor_id = d.target_id AND r.target_id = d.actor_id AND r.value = ?", true)

	cond := "NOT EXISTS (?)"
	if mutual {
		cond = "EXISTS (?)"
	}

	return conn.
		Table("like_edges d").
		Where("d.target_id = ? AND d.actor_id <> ? AND d.value = ?", userID, userID, true).
		Where(cond, reverse)
}

// UpsertFavorite bookmarks target for user, refreshing favorited_at.
func (r *InterestRepository) UpsertFavorite(ctx context.Context, userID, targetID string, at time.Time) error {
	conn, cancel := r.conn(ctx)
	defer cancel()

	fav := db.FavoriteEdge{UserID: userID, TargetID: targetID, FavoritedAt: at}
	err := conn.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"favorited_at"}),
		}).
		Create(&fav).Error
	return wrap("upsert favorite", err)
}

// DeleteFavorite removes the bookmark. Deleting an absent edge is not an error.
func (r *InterestRepository) DeleteFavorite(ctx context.Context, userID, targetID string) error {
	conn, cancel := r.conn(ctx)
	defer cancel()

	err := conn.
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Delete(&db.FavoriteEdge{}).Error
	return wrap("delete favorite", err)
}

// Favorites returns the user's bookmarks, newest first.
func (r *InterestRepository) Favorites(ctx context.Context, userID string) ([]db.FavoriteEdge, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var favs []db.FavoriteEdge
	err := conn.
		Where("user_id = ?", userID).
		Order("favorited_at DESC, target_id ASC").
		Find(&favs).Error
	return favs, wrap("list favorites", err)
}
