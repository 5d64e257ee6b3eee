// internal/repository/postgres/snapshot_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/repository"
)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) repository.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Products(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, code, name, dimension_type, unit_value, unit_code
		FROM products
		ORDER BY id
	`

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error getting products: %w", err)
	}

	return products, nil
}

func (r *snapshotRepository) Locations(ctx context.Context) ([]domain.Location, error) {
	query := `
		SELECT id, name, tier, active, internal, sellable
		FROM locations
		ORDER BY id
	`

	var locations []domain.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("error getting locations: %w", err)
	}

	return locations, nil
}

func (r *snapshotRepository) ShelfLives(ctx context.Context) ([]domain.ShelfLife, error) {
	query := `
		SELECT product_id, value, unit_code
		FROM shelf_lives
	`

	var lives []domain.ShelfLife
	if err := r.db.SelectContext(ctx, &lives, query); err != nil {
		return nil, fmt.Errorf("error getting shelf lives: %w", err)
	}

	return lives, nil
}

func (r *snapshotRepository) ProductSignals(ctx context.Context) ([]domain.ProductSignals, error) {
	query := `
		SELECT product_id, rpr, pwo, supply_pct
		FROM product_signals
	`

	var signals []domain.ProductSignals
	if err := r.db.SelectContext(ctx, &signals, query); err != nil {
		return nil, fmt.Errorf("error getting product signals: %w", err)
	}

	return signals, nil
}

// StoreEvents returns the store-tier stock readings that can influence
// the window: everything inside it plus, per (product, location)
// stream, the newest reading before it. That anchor reading carries the
// quantity the window opens with.
func (r *snapshotRepository) StoreEvents(ctx context.Context, window domain.Window) ([]domain.StockEvent, error) {
	query := `
		SELECT id, product_id, location_id, tier, timestamp, quantity, type
		FROM stock_events
		WHERE tier = 'store' AND timestamp >= $1 AND timestamp < $2

		UNION ALL

		(
			SELECT DISTINCT ON (product_id, location_id)
				id, product_id, location_id, tier, timestamp, quantity, type
			FROM stock_events
			WHERE tier = 'store' AND timestamp < $1
			ORDER BY product_id, location_id, timestamp DESC
		)
	`

	var events []domain.StockEvent
	if err := r.db.SelectContext(ctx, &events, query, window.From, window.To); err != nil {
		return nil, fmt.Errorf("error getting store events: %w", err)
	}

	return events, nil
}

// HubShipments returns the provider-side readings mapped onto the hub
// tier, with the same pre-window anchor per stream.
func (r *snapshotRepository) HubShipments(ctx context.Context, window domain.Window) ([]domain.StockEvent, error) {
	query := `
		SELECT id, product_id, hub_id AS location_id, 'hub' AS tier, timestamp, quantity, type
		FROM shipments
		WHERE timestamp >= $1 AND timestamp < $2

		UNION ALL

		(
			SELECT DISTINCT ON (product_id, hub_id)
				id, product_id, hub_id AS location_id, 'hub' AS tier, timestamp, quantity, type
			FROM shipments
			WHERE timestamp < $1
			ORDER BY product_id, hub_id, timestamp DESC
		)
	`

	var events []domain.StockEvent
	if err := r.db.SelectContext(ctx, &events, query, window.From, window.To); err != nil {
		return nil, fmt.Errorf("error getting hub shipments: %w", err)
	}

	return events, nil
}

// SaleWindows returns every sale period touching the window. Open
// periods have a NULL end.
func (r *snapshotRepository) SaleWindows(ctx context.Context, window domain.Window) ([]domain.SaleWindow, error) {
	query := `
		SELECT product_id, location_id, started_at, ended_at
		FROM sale_windows
		WHERE started_at < $2 AND (ended_at IS NULL OR ended_at > $1)
	`

	var windows []domain.SaleWindow
	if err := r.db.SelectContext(ctx, &windows, query, window.From, window.To); err != nil {
		return nil, fmt.Errorf("error getting sale windows: %w", err)
	}

	return windows, nil
}

func (r *snapshotRepository) ProbeSamples(ctx context.Context, window domain.Window) ([]domain.ProbeSample, error) {
	query := `
		SELECT product_id, location_id, bucket_start, level, is_out
		FROM probe_samples
		WHERE bucket_start >= $1 AND bucket_start < $2
	`

	var samples []domain.ProbeSample
	if err := r.db.SelectContext(ctx, &samples, query, window.From, window.To); err != nil {
		return nil, fmt.Errorf("error getting probe samples: %w", err)
	}

	return samples, nil
}
