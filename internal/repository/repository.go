package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	svcErr "github.com/oggyb/connecta/internal/errors"
)

// Option tunes a repository.
type Option func(*base)

// WithTimeout bounds every store call. A call that runs out of time fails
// with a StorageError wrapping context.DeadlineExceeded, never with NotFound.
func WithTimeout(d time.Duration) Option {
	return func(b *base) { b.timeout = d }
}

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(database *gorm.DB, opts []Option) base {
	b := base{db: database}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// conn returns a session bound to ctx and, if configured, the call timeout.
func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if b.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		return b.db.WithContext(ctx), cancel
	}
	return b.db.WithContext(ctx), func() {}
}

// wrap keeps domain errors untouched and marks everything else as storage.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, svcErr.ErrInvalidInput) || errors.Is(err, svcErr.ErrNotFound) {
		return err
	}
	return svcErr.Storage(op, err)
}
