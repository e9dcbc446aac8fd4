package crud

import (
	"context"
	"encoding/json"
)

// Entity is a persisted row: column name -> value.
type Entity map[string]any

// ID returns the numeric id of the row, 0 when it has none.
func (e Entity) ID() int64 {
	switch v := e["id"].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			// не целое или вне int64: id нет
			return 0
		}
		return n
	}
	return 0
}

// Clone returns a shallow copy of the row.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Filter selects rows. ID 0 matches every id. Deleted=false matches rows whose
// isdeleted is not true (false or null); Deleted=true matches only
// soft-deleted rows.
type Filter struct {
	ID      int64
	Deleted bool
}

// Store is the persistence boundary for one model.
type Store interface {
	// Name is the model name used in messages ("Job").
	Name() string
	// FindOne returns nil, nil when nothing matches.
	FindOne(ctx context.Context, f Filter) (Entity, error)
	FindMany(ctx context.Context, f Filter) ([]Entity, error)
	Exists(ctx context.Context, f Filter) (bool, error)
	Create(ctx context.Context, values map[string]any) (Entity, error)
	// Save applies changes to the row identified by e and returns the stored
	// row. The id column is never changed.
	Save(ctx context.Context, e Entity, changes map[string]any) (Entity, error)
}

// Models resolves a model store by name.
type Models interface {
	Model(name string) (Store, error)
}

// Provider hands out the model set, connecting on first use. Acquire is safe
// to call concurrently and repeatedly.
type Provider interface {
	Acquire(ctx context.Context) (Models, error)
}
