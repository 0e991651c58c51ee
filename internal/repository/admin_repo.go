package repository

import (
	"fmt"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
)

// AdminRepo exposes storage maintenance for the collections this service
// owns.
type AdminRepo struct {
	pool *db.Pool
}

func NewAdminRepo(pool *db.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func (r *AdminRepo) ListIndexes(collection string) ([]map[string]any, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	c := r.pool.Get()
	return c.ListIndexes(collection)
}

func (r *AdminRepo) Compact(collection string) (map[string]any, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	c := r.pool.Get()
	return c.Compact(collection)
}

func checkCollection(name string) error {
	for _, c := range Collections {
		if c == name {
			return nil
		}
	}
	return fmt.Errorf("unknown collection %q", name)
}
