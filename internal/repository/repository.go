package repository

import (
	"context"

	"github.com/mr1hm/resqlink/internal/models"
)

// SnapshotRepository holds the canonical event set of the latest applied
// fetch. The set is replaced wholesale; there are no incremental updates.
type SnapshotRepository interface {
	ReplaceAll(ctx context.Context, events []models.DisasterEvent) error
	List(ctx context.Context) ([]models.DisasterEvent, error)
	GetByID(ctx context.Context, id int64) (*models.DisasterEvent, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
}
