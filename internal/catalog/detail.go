package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kasetinfo/internal/models"
)

// ErrNotFound is returned when a detail lookup finds no item. A malformed
// identifier is also reported as not found.
var ErrNotFound = errors.New("ไม่พบเนื้อหา")

// ItemReader loads single items straight from the repository.
type ItemReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

// LoadDetail fetches one item for the detail view, bypassing the cached
// list so the view always shows the stored record.
func LoadDetail(ctx context.Context, r ItemReader, rawID string) (*models.Item, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrNotFound
	}
	it, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load item %s: %w", id, err)
	}
	if it == nil {
		return nil, ErrNotFound
	}
	return it, nil
}
