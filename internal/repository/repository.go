// Package repository records mesh exports in a relational database.
package repository

import (
	"context"

	"github.com/metaflame/pkg/model"
)

// ExportRepository defines the interface for export ledger operations.
type ExportRepository interface {
	// Create inserts exp and sets its ID and CreatedAt.
	Create(ctx context.Context, exp *model.Export) error

	// Get retrieves an export by its ID. A missing row yields an ErrNotFound AppError.
	Get(ctx context.Context, id int64) (*model.Export, error)

	// List returns the newest exports first, filtered by dataset when it is non-empty.
	List(ctx context.Context, dataset string, limit int) ([]*model.Export, error)
}

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
