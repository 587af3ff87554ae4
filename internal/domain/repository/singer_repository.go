package repository

import (
	"context"
	"errors"

	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
)

// ErrNotFound is returned when no row matches the requested key.
var ErrNotFound = errors.New("not found")

// SingerRepository abstracts Singer persistence regardless of the underlying DB.
type SingerRepository interface {
	// FindByID returns ErrNotFound when the id does not exist.
	FindByID(ctx context.Context, id int64) (model.Singer, error)
	// List returns every row in whatever order the database yields them.
	List(ctx context.Context) ([]model.Singer, error)
	ListIDs(ctx context.Context) ([]int64, error)
}
