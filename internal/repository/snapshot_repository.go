// internal/repository/snapshot_repository.go
package repository

import (
	"context"

	"github.com/velstore/stockpulse/internal/domain"
)

// SnapshotRepository loads everything one computation run needs: the
// reference data and the window-bounded input streams. Event queries
// include the last reading before the window start per stream, so the
// reconstruction knows the opening state.
type SnapshotRepository interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Locations(ctx context.Context) ([]domain.Location, error)
	ShelfLives(ctx context.Context) ([]domain.ShelfLife, error)
	ProductSignals(ctx context.Context) ([]domain.ProductSignals, error)

	StoreEvents(ctx context.Context, window domain.Window) ([]domain.StockEvent, error)
	HubShipments(ctx context.Context, window domain.Window) ([]domain.StockEvent, error)
	SaleWindows(ctx context.Context, window domain.Window) ([]domain.SaleWindow, error)
	ProbeSamples(ctx context.Context, window domain.Window) ([]domain.ProbeSample, error)
}
