package pg

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"jobsapi/internal/crud"
)

// Options configure a Handle.
type Options struct {
	URL         string
	AutoMigrate bool
	Tables      []Table
}

// Handle connects lazily on the first Acquire. Concurrent first callers share
// one connection attempt; a failed attempt is retried by the next call.
type Handle struct {
	opts  Options
	log   logrus.FieldLogger
	open  func(ctx context.Context, url string) (*sqlx.DB, error)
	group singleflight.Group

	mu     sync.Mutex
	models *Models
}

var _ crud.Provider = (*Handle)(nil)

func NewHandle(opts Options, log logrus.FieldLogger) *Handle {
	return &Handle{opts: opts, log: log, open: Open}
}

func (h *Handle) ready() *Models {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.models
}

func (h *Handle) Acquire(ctx context.Context) (crud.Models, error) {
	if m := h.ready(); m != nil {
		return m, nil
	}
	v, err, _ := h.group.Do("acquire", func() (any, error) {
		if m := h.ready(); m != nil {
			return m, nil
		}
		// запрос может отмениться, а подключение нужно всем ожидающим
		m, err := h.connect(context.WithoutCancel(ctx))
		if err != nil {
			h.log.WithError(err).Error("database connection failed")
			return nil, err
		}
		h.mu.Lock()
		h.models = m
		h.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Models), nil
}

func (h *Handle) connect(ctx context.Context) (*Models, error) {
	db, err := h.open(ctx, h.opts.URL)
	if err != nil {
		return nil, err
	}
	if h.opts.AutoMigrate {
		if err := Migrate(ctx, db, h.log, h.opts.Tables...); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	h.log.WithField("tables", len(h.opts.Tables)).Info("database connected")
	return NewModels(db, h.opts.Tables...), nil
}

// Close releases the pool if one was opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.models == nil {
		return nil
	}
	err := h.models.db.Close()
	h.models = nil
	return err
}
