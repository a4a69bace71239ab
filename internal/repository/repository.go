package repository

import (
	"context"

	"blinkitparser/internal/domain/models"
)

// RowSink receives normalized products one at a time, in scrape order.
type RowSink interface {
	WriteRow(ctx context.Context, p models.Product) error
}
