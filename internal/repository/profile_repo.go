package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/connecta/internal/db"
	svcErr "github.com/oggyb/connecta/internal/errors"
)

// ProfileRepository is the profile store adapter (users/{id}).
// The engine only reads through it; Update serves the profile-edit path.
type ProfileRepository struct {
	base
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB, opts ...Option) *ProfileRepository {
	return &ProfileRepository{base: newBase(database, opts)}
}

// Get loads one profile. Absent users yield ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*db.User, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var u db.User
	if err := conn.First(&u, "id = ?", userID).Error; err != nil {
		return nil, svcErr.Storage("load user "+userID, err)
	}
	return &u, nil
}

// GetMany loads the given profiles keyed by id. Missing ids are simply absent
// from the result.
func (r *ProfileRepository) GetMany(ctx context.Context, userIDs []string) (map[string]*db.User, error) {
	out := make(map[string]*db.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	conn, cancel := r.conn(ctx)
	defer cancel()

	var users []db.User
	if err := conn.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, wrap("load users", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// GetAll returns every profile in store iteration order (id ascending).
func (r *ProfileRepository) GetAll(ctx context.Context) ([]db.User, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var users []db.User
	if err := conn.Order("id ASC").Find(&users).Error; err != nil {
		return nil, wrap("load all users", err)
	}
	return users, nil
}

// Update applies a partial update, e.g. {"is_premium": true}.
func (r *ProfileRepository) Update(ctx context.Context, userID string, fields map[string]any) error {
	conn, cancel := r.conn(ctx)
	defer cancel()

	res := conn.Model(&db.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return wrap("update user "+userID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL reports 0 affected rows when nothing changed
	var n int64
	if err := conn.Model(&db.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return wrap("update user "+userID, err)
	}
	if n == 0 {
		return svcErr.NotFound("user " + userID)
	}
	return nil
}
