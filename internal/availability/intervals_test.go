package availability

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/velstore/stockpulse/internal/domain"
)

func interval(t *testing.T, start, end string) domain.DeficientInterval {
	t.Helper()
	return domain.DeficientInterval{
		ProductID:  1,
		LocationID: 10,
		Tier:       domain.TierStore,
		Start:      ts(t, start),
		End:        ts(t, end),
	}
}

func TestDeficientIntervals(t *testing.T) {
	w := window(t, "2026-03-01T08:00:00Z", "2026-03-01T17:00:00Z")
	key := Key{ProductID: 1, LocationID: 10, Tier: domain.TierStore}
	one := decimal.NewFromInt(1)

	t.Run("spans below threshold become clipped intervals", func(t *testing.T) {
		events := []domain.StockEvent{
			event(t, "2026-02-28T20:00:00Z", 0),  // deficient before window opens
			event(t, "2026-03-01T10:00:00Z", 5),  // restocked
			event(t, "2026-03-01T12:00:00Z", 0),  // deficient again, until window end
		}

		got := DeficientIntervals(key, Normalize(events, w), one, w)
		if len(got) != 2 {
			t.Fatalf("got %d intervals, want 2", len(got))
		}
		if !got[0].Start.Equal(w.From) {
			t.Errorf("first interval must clip to window start, got %s", got[0].Start)
		}
		if !got[0].End.Equal(ts(t, "2026-03-01T10:00:00Z")) {
			t.Errorf("first interval end = %s", got[0].End)
		}
		if !got[1].End.Equal(w.To) {
			t.Errorf("open-ended deficiency must clip to window end, got %s", got[1].End)
		}
	})

	t.Run("consecutive deficient spans coalesce", func(t *testing.T) {
		events := []domain.StockEvent{
			event(t, "2026-03-01T09:00:00Z", 0),
			event(t, "2026-03-01T11:00:00Z", 0), // still deficient, new reading
			event(t, "2026-03-01T13:00:00Z", 8),
		}

		got := DeficientIntervals(key, Normalize(events, w), one, w)
		if len(got) != 1 {
			t.Fatalf("got %d intervals, want 1 coalesced", len(got))
		}
		if !got[0].Start.Equal(ts(t, "2026-03-01T09:00:00Z")) || !got[0].End.Equal(ts(t, "2026-03-01T13:00:00Z")) {
			t.Errorf("coalesced interval = [%s, %s)", got[0].Start, got[0].End)
		}
	})

	t.Run("intervals stay pairwise disjoint and ordered", func(t *testing.T) {
		events := []domain.StockEvent{
			event(t, "2026-03-01T09:00:00Z", 0),
			event(t, "2026-03-01T10:00:00Z", 3),
			event(t, "2026-03-01T11:00:00Z", 0),
			event(t, "2026-03-01T12:00:00Z", 3),
			event(t, "2026-03-01T13:00:00Z", 0),
		}

		got := DeficientIntervals(key, Normalize(events, w), one, w)
		for i := range got {
			if !got[i].Start.Before(got[i].End) {
				t.Errorf("interval %d is empty or inverted", i)
			}
			if i > 0 && got[i].Start.Before(got[i-1].End) {
				t.Errorf("interval %d overlaps its predecessor", i)
			}
		}
	})

	t.Run("threshold is exclusive at the boundary", func(t *testing.T) {
		threshold := decimal.RequireFromString("0.35")
		events := []domain.StockEvent{
			{ProductID: 1, LocationID: 10, Tier: domain.TierStore, Timestamp: ts(t, "2026-03-01T09:00:00Z"), Quantity: decimal.RequireFromString("0.35")},
		}

		if got := DeficientIntervals(key, Normalize(events, w), threshold, w); len(got) != 0 {
			t.Fatalf("quantity equal to threshold is not deficient, got %d intervals", len(got))
		}
	})

	t.Run("fully stocked stream yields nothing", func(t *testing.T) {
		events := []domain.StockEvent{
			event(t, "2026-03-01T09:00:00Z", 4),
		}

		if got := DeficientIntervals(key, Normalize(events, w), one, w); len(got) != 0 {
			t.Fatalf("got %d intervals, want none", len(got))
		}
	})
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []domain.DeficientInterval
		want []string
	}{
		{
			name: "overlapping intervals union",
			in: []domain.DeficientInterval{
				interval(t, "2026-03-01T10:00:00Z", "2026-03-01T12:00:00Z"),
				interval(t, "2026-03-01T11:00:00Z", "2026-03-01T14:00:00Z"),
			},
			want: []string{"2026-03-01T10:00:00Z/2026-03-01T14:00:00Z"},
		},
		{
			name: "touching intervals join",
			in: []domain.DeficientInterval{
				interval(t, "2026-03-01T10:00:00Z", "2026-03-01T12:00:00Z"),
				interval(t, "2026-03-01T12:00:00Z", "2026-03-01T13:00:00Z"),
			},
			want: []string{"2026-03-01T10:00:00Z/2026-03-01T13:00:00Z"},
		},
		{
			name: "disjoint intervals stay apart and sort",
			in: []domain.DeficientInterval{
				interval(t, "2026-03-01T14:00:00Z", "2026-03-01T15:00:00Z"),
				interval(t, "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z"),
			},
			want: []string{
				"2026-03-01T10:00:00Z/2026-03-01T11:00:00Z",
				"2026-03-01T14:00:00Z/2026-03-01T15:00:00Z",
			},
		},
		{
			name: "contained interval disappears",
			in: []domain.DeficientInterval{
				interval(t, "2026-03-01T10:00:00Z", "2026-03-01T16:00:00Z"),
				interval(t, "2026-03-01T11:00:00Z", "2026-03-01T12:00:00Z"),
			},
			want: []string{"2026-03-01T10:00:00Z/2026-03-01T16:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d intervals, want %d", len(got), len(tt.want))
			}
			for i, iv := range got {
				span := iv.Start.Format("2006-01-02T15:04:05Z") + "/" + iv.End.Format("2006-01-02T15:04:05Z")
				if span != tt.want[i] {
					t.Errorf("interval %d = %s, want %s", i, span, tt.want[i])
				}
			}
		})
	}
}
