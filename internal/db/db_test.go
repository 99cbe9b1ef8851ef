package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/connecta/internal/config"
	"github.com/oggyb/connecta/internal/db"
	"github.com/oggyb/connecta/internal/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = "file:" + t.Name() + "?mode=memory&cache=shared"

	database, err := db.NewDB(cfg)
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return database
}

func TestNewDB_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = "oracle"

	_, err := db.NewDB(cfg)
	assert.ErrorContains(t, err, "unsupported db driver")
}

func TestSeedTestData(t *testing.T) {
	database := openSQLite(t)

	require.NoError(t, db.SeedTestData(database, 10, logger.Discard()))

	var users []db.User
	require.NoError(t, database.Find(&users).Error)
	require.Len(t, users, 10)

	byID := make(map[string]db.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
		assert.Equal(t, db.ProfileComplete, u.ProfileCompleted)
		assert.NotEqual(t, u.Gender, u.GenderPreferred)
		assert.NotEmpty(t, u.Avatar())
	}
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("password")))

	var likes []db.LikeEdge
	require.NoError(t, database.Find(&likes).Error)
	require.NotEmpty(t, likes)
	for _, l := range likes {
		actor, target := byID[l.ActorID], byID[l.TargetID]
		assert.NotEqual(t, l.ActorID, l.TargetID)
		assert.Equal(t, actor.GenderPreferred, target.Gender, "likes follow gender preference")
	}
}

func TestSeedTestData_Reseed(t *testing.T) {
	database := openSQLite(t)

	require.NoError(t, db.SeedTestData(database, 6, logger.Discard()))
	require.NoError(t, db.SeedTestData(database, 4, logger.Discard()))

	var count int64
	require.NoError(t, database.Model(&db.User{}).Count(&count).Error)
	assert.EqualValues(t, 4, count)
}
