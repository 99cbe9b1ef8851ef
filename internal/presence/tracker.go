package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/oggyb/connecta/internal/cache"
	svcErr "github.com/oggyb/connecta/internal/errors"
)

// Tracker keeps ephemeral per-(conversation, user) typing flags and per-user
// online counters in Redis. Nothing here needs to survive a restart.
type Tracker struct {
	cache     *cache.RedisCache
	typingTTL time.Duration
}

// NewTracker creates a Tracker. typingTTL bounds how long a "typing" flag
// lives without being refreshed; zero keeps it until overwritten.
func NewTracker(c *cache.RedisCache, typingTTL time.Duration) *Tracker {
	return &Tracker{cache: c, typingTTL: typingTTL}
}

// SetTyping stores the flag. Last write wins; false removes the key so an
// unset and a cleared flag read the same.
func (t *Tracker) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	key := t.cache.KeyForTyping(conversationID, userID)
	var err error
	if typing {
		err = t.cache.Set(ctx, key, "1", t.typingTTL)
	} else {
		err = t.cache.Del(ctx, key)
	}
	return svcErr.Storage("set typing", err)
}

// GetTyping returns the flag, false when unset or expired.
func (t *Tracker) GetTyping(ctx context.Context, conversationID, userID string) (bool, error) {
	val, ok, err := t.cache.Get(ctx, t.cache.KeyForTyping(conversationID, userID))
	if err != nil {
		return false, svcErr.Storage("get typing", err)
	}
	return ok && val == "1", nil
}

// Connected records one more live connection for userID.
func (t *Tracker) Connected(ctx context.Context, userID string) (int64, error) {
	n, err := t.cache.Incr(ctx, t.cache.KeyForOnline(userID))
	if err != nil {
		return 0, svcErr.Storage("mark online", err)
	}
	return n, nil
}

// Disconnected drops one live connection; the key is removed at zero.
func (t *Tracker) Disconnected(ctx context.Context, userID string) (int64, error) {
	n, err := t.cache.DecrOrDelete(ctx, t.cache.KeyForOnline(userID))
	if err != nil {
		return 0, svcErr.Storage("mark offline", err)
	}
	return n, nil
}

// IsOnline reports whether userID has at least one live connection.
func (t *Tracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	val, ok, err := t.cache.Get(ctx, t.cache.KeyForOnline(userID))
	if err != nil {
		return false, svcErr.Storage("get online", err)
	}
	if !ok {
		return false, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	return err == nil && n > 0, nil
}
