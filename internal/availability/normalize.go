// internal/availability/normalize.go
package availability

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velstore/stockpulse/internal/domain"
)

// Key identifies one stream of stock readings.
type Key struct {
	ProductID  int64
	LocationID int64
	Tier       domain.Tier
}

// Span is a reconstructed validity period: the quantity held at the
// location from ValidFrom until the next reading at ValidTo.
type Span struct {
	Quantity  decimal.Decimal
	ValidFrom time.Time
	ValidTo   time.Time
}

// Normalize turns the unordered readings of one (product, location,
// tier) key into an ordered span sequence. Each reading stays valid
// until the next one; the last reading extends to the window end.
// Readings at or past the window end carry no information and are
// dropped. Ties on the timestamp keep their input order, so repeated
// runs over the same rows reconstruct the same spans.
func Normalize(events []domain.StockEvent, window domain.Window) []Span {
	inWindow := make([]domain.StockEvent, 0, len(events))
	for _, ev := range events {
		if ev.Timestamp.Before(window.To) {
			inWindow = append(inWindow, ev)
		}
	}
	if len(inWindow) == 0 {
		return nil
	}

	sort.SliceStable(inWindow, func(i, j int) bool {
		return inWindow[i].Timestamp.Before(inWindow[j].Timestamp)
	})

	spans := make([]Span, 0, len(inWindow))
	for i, ev := range inWindow {
		validTo := window.To
		if i+1 < len(inWindow) {
			validTo = inWindow[i+1].Timestamp
		}
		spans = append(spans, Span{
			Quantity:  ev.Quantity,
			ValidFrom: ev.Timestamp,
			ValidTo:   validTo,
		})
	}

	return spans
}

// GroupByKey splits a mixed event slice into per-key streams.
func GroupByKey(events []domain.StockEvent) map[Key][]domain.StockEvent {
	grouped := make(map[Key][]domain.StockEvent)
	for _, ev := range events {
		k := Key{ProductID: ev.ProductID, LocationID: ev.LocationID, Tier: ev.Tier}
		grouped[k] = append(grouped[k], ev)
	}

	return grouped
}
