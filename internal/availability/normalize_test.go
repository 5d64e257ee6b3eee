package availability

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velstore/stockpulse/internal/domain"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

func window(t *testing.T, from, to string) domain.Window {
	t.Helper()
	w, err := domain.NewWindow(ts(t, from), ts(t, to))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return w
}

func event(t *testing.T, at string, qty int64) domain.StockEvent {
	t.Helper()
	return domain.StockEvent{
		ProductID:  1,
		LocationID: 10,
		Tier:       domain.TierStore,
		Timestamp:  ts(t, at),
		Quantity:   decimal.NewFromInt(qty),
	}
}

func TestNormalize(t *testing.T) {
	w := window(t, "2026-03-01T08:00:00Z", "2026-03-01T17:00:00Z")

	t.Run("unordered readings become ordered spans", func(t *testing.T) {
		events := []domain.StockEvent{
			event(t, "2026-03-01T12:00:00Z", 0),
			event(t, "2026-03-01T09:00:00Z", 5),
			event(t, "2026-03-01T15:00:00Z", 3),
		}

		spans := Normalize(events, w)
		if len(spans) != 3 {
			t.Fatalf("got %d spans, want 3", len(spans))
		}

		for i := 1; i < len(spans); i++ {
			if !spans[i-1].ValidTo.Equal(spans[i].ValidFrom) {
				t.Errorf("span %d does not chain: %s != %s", i, spans[i-1].ValidTo, spans[i].ValidFrom)
			}
		}
		if !spans[0].ValidFrom.Equal(ts(t, "2026-03-01T09:00:00Z")) {
			t.Errorf("first span starts at %s", spans[0].ValidFrom)
		}
		if !spans[2].ValidTo.Equal(w.To) {
			t.Errorf("last span must extend to window end, got %s", spans[2].ValidTo)
		}
	})

	t.Run("reading before window anchors opening state", func(t *testing.T) {
		events := []domain.StockEvent{
			event(t, "2026-02-28T22:00:00Z", 0),
		}

		spans := Normalize(events, w)
		if len(spans) != 1 {
			t.Fatalf("got %d spans, want 1", len(spans))
		}
		if !spans[0].ValidFrom.Equal(ts(t, "2026-02-28T22:00:00Z")) {
			t.Errorf("span start = %s", spans[0].ValidFrom)
		}
		if !spans[0].ValidTo.Equal(w.To) {
			t.Errorf("span end = %s, want window end", spans[0].ValidTo)
		}
	})

	t.Run("readings at or past window end are dropped", func(t *testing.T) {
		events := []domain.StockEvent{
			event(t, "2026-03-01T17:00:00Z", 0),
			event(t, "2026-03-01T18:00:00Z", 4),
		}

		if spans := Normalize(events, w); spans != nil {
			t.Fatalf("got %d spans, want none", len(spans))
		}
	})

	t.Run("timestamp ties keep input order", func(t *testing.T) {
		first := event(t, "2026-03-01T10:00:00Z", 2)
		second := event(t, "2026-03-01T10:00:00Z", 7)

		spans := Normalize([]domain.StockEvent{first, second}, w)
		if len(spans) != 2 {
			t.Fatalf("got %d spans, want 2", len(spans))
		}
		if !spans[0].Quantity.Equal(decimal.NewFromInt(2)) || !spans[1].Quantity.Equal(decimal.NewFromInt(7)) {
			t.Errorf("tie order not stable: %s then %s", spans[0].Quantity, spans[1].Quantity)
		}
		if !spans[0].ValidFrom.Equal(spans[0].ValidTo) {
			t.Errorf("shadowed tie span should be empty, got [%s, %s)", spans[0].ValidFrom, spans[0].ValidTo)
		}
	})

	t.Run("no readings yield no spans", func(t *testing.T) {
		if spans := Normalize(nil, w); spans != nil {
			t.Fatalf("got %d spans, want none", len(spans))
		}
	})
}

func TestGroupByKey(t *testing.T) {
	events := []domain.StockEvent{
		{ProductID: 1, LocationID: 10, Tier: domain.TierStore},
		{ProductID: 1, LocationID: 10, Tier: domain.TierStore},
		{ProductID: 1, LocationID: 99, Tier: domain.TierHub},
		{ProductID: 2, LocationID: 10, Tier: domain.TierStore},
	}

	grouped := GroupByKey(events)
	if len(grouped) != 3 {
		t.Fatalf("got %d keys, want 3", len(grouped))
	}
	storeKey := Key{ProductID: 1, LocationID: 10, Tier: domain.TierStore}
	if len(grouped[storeKey]) != 2 {
		t.Errorf("store key holds %d events, want 2", len(grouped[storeKey]))
	}
}
