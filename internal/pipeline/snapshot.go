package pipeline

import (
	"context"
	"fmt"

	"github.com/velstore/stockpulse/internal/availability"
	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/repository"
)

// Snapshot is the frozen view of one run's inputs: reference data plus
// the window-bounded event streams, grouped for per-product work. All
// later stages read from it, so every product sees the same world.
type Snapshot struct {
	Window          domain.Window
	Products        []domain.Product
	ProductsByID    map[int64]domain.Product
	ActiveLocations int

	// productID -> locationID -> readings, store events restricted to
	// eligible locations, hub shipments keyed by hub.
	StoreEvents map[int64]map[int64][]domain.StockEvent
	HubEvents   map[int64]map[int64][]domain.StockEvent

	Sales   map[int64][]domain.SaleWindow
	Probes  map[int64][]domain.ProbeSample
	Signals map[int64]*domain.ProductSignals
	Shelf   map[int64]*domain.ShelfLife

	// StoredScores backs the corrections stage when availability is not
	// recomputed in the same run.
	StoredScores map[int64]float64
}

// LoadSnapshot fetches and groups everything a run needs.
func LoadSnapshot(ctx context.Context, repo repository.SnapshotRepository, window domain.Window) (*Snapshot, error) {
	snap := &Snapshot{
		Window:       window,
		ProductsByID: make(map[int64]domain.Product),
		StoreEvents:  make(map[int64]map[int64][]domain.StockEvent),
		HubEvents:    make(map[int64]map[int64][]domain.StockEvent),
		Sales:        make(map[int64][]domain.SaleWindow),
		Probes:       make(map[int64][]domain.ProbeSample),
		Signals:      make(map[int64]*domain.ProductSignals),
		Shelf:        make(map[int64]*domain.ShelfLife),
	}

	products, err := repo.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot products: %w", err)
	}
	snap.Products = products
	for _, p := range products {
		snap.ProductsByID[p.ID] = p
	}

	locations, err := repo.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot locations: %w", err)
	}
	eligible := make(map[int64]bool)
	for _, l := range locations {
		if l.Eligible() {
			eligible[l.ID] = true
		}
	}
	snap.ActiveLocations = len(eligible)

	storeEvents, err := repo.StoreEvents(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("snapshot store events: %w", err)
	}
	for key, events := range availability.GroupByKey(storeEvents) {
		if !eligible[key.LocationID] {
			continue
		}
		byLocation := snap.StoreEvents[key.ProductID]
		if byLocation == nil {
			byLocation = make(map[int64][]domain.StockEvent)
			snap.StoreEvents[key.ProductID] = byLocation
		}
		byLocation[key.LocationID] = events
	}

	hubEvents, err := repo.HubShipments(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("snapshot hub shipments: %w", err)
	}
	for key, events := range availability.GroupByKey(hubEvents) {
		byLocation := snap.HubEvents[key.ProductID]
		if byLocation == nil {
			byLocation = make(map[int64][]domain.StockEvent)
			snap.HubEvents[key.ProductID] = byLocation
		}
		byLocation[key.LocationID] = events
	}

	sales, err := repo.SaleWindows(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("snapshot sale windows: %w", err)
	}
	for _, sw := range sales {
		if !eligible[sw.LocationID] {
			continue
		}
		snap.Sales[sw.ProductID] = append(snap.Sales[sw.ProductID], sw)
	}

	probes, err := repo.ProbeSamples(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("snapshot probe samples: %w", err)
	}
	for _, p := range probes {
		if !eligible[p.LocationID] {
			continue
		}
		snap.Probes[p.ProductID] = append(snap.Probes[p.ProductID], p)
	}

	signals, err := repo.ProductSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot product signals: %w", err)
	}
	for i := range signals {
		snap.Signals[signals[i].ProductID] = &signals[i]
	}

	lives, err := repo.ShelfLives(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot shelf lives: %w", err)
	}
	for i := range lives {
		snap.Shelf[lives[i].ProductID] = &lives[i]
	}

	return snap, nil
}
