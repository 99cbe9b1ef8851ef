// Package testutil wires an AppContext over in-memory SQLite and miniredis
// for service and transport tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/connecta/internal/app"
	"github.com/oggyb/connecta/internal/cache"
	"github.com/oggyb/connecta/internal/config"
	"github.com/oggyb/connecta/internal/db"
	applog "github.com/oggyb/connecta/internal/logger"
)

// Env is one isolated test environment.
type Env struct {
	App   *app.AppContext
	DB    *gorm.DB
	Redis *miniredis.Miniredis

	now time.Time
}

// Start is the fixed instant every Env clock begins at.
var Start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// New spins up an in-memory SQLite DB (migrated), a miniredis and an
// AppContext over both. The clock starts at Start and only moves via Advance.
//
// Each test gets its own isolated DB + Redis.
func New(t *testing.T) *Env {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbase, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	// one connection: SQLite serializes writers anyway and concurrent tests
	// would otherwise hit "database is locked"
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.DB.Timeout = 0

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	env := &Env{DB: dbase, Redis: mr, now: Start}
	env.App = app.New(cfg, dbase, redisCache, applog.Discard())
	env.App.Clock = env.Now
	t.Cleanup(env.App.Relay.Shutdown)
	return env
}

// Now is the Env clock.
func (e *Env) Now() time.Time { return e.now }

// Advance moves the clock forward.
func (e *Env) Advance(d time.Duration) { e.now = e.now.Add(d) }

// User is a complete profile with sensible defaults.
func User(id, first string) db.User {
	return db.User{
		ID:               id,
		Email:            id + "@test.com",
		PasswordHash:     "x",
		FirstName:        first,
		LastName:         "Test",
		Photos:           []string{"https://img.test/" + id + ".jpg"},
		Gender:           "female",
		Birthday:         "01/01/1996",
		Interests:        []string{"hiking"},
		ProfileCompleted: db.ProfileComplete,
	}
}

// Seed inserts users.
func (e *Env) Seed(t *testing.T, users ...db.User) {
	t.Helper()
	require.NoError(t, e.DB.Create(&users).Error)
}
