package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/cuya-bot/internal/models"
)

var ErrNotFound = errors.New("report not found")

type Filter struct {
	Limit  int
	Offset int
}

type ReportRepository interface {
	// Add inserts r and sets r.ID to the id assigned by the store.
	Add(ctx context.Context, r *models.Report) error
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	// Delete removes the report if present. Deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error
	// ListReports returns reports newest first (descending id).
	ListReports(ctx context.Context, opts Filter) ([]models.Report, error)
}
