package availability

import (
	"testing"

	"github.com/velstore/stockpulse/internal/domain"
)

func TestOverlapSeconds(t *testing.T) {
	tests := []struct {
		name string
		a    domain.DeficientInterval
		b    domain.DeficientInterval
		want float64
	}{
		{
			name: "partial overlap",
			a:    interval(t, "2026-03-01T10:00:00Z", "2026-03-01T14:00:00Z"),
			b:    interval(t, "2026-03-01T12:00:00Z", "2026-03-01T16:00:00Z"),
			want: 7200,
		},
		{
			name: "containment",
			a:    interval(t, "2026-03-01T10:00:00Z", "2026-03-01T16:00:00Z"),
			b:    interval(t, "2026-03-01T12:00:00Z", "2026-03-01T13:00:00Z"),
			want: 3600,
		},
		{
			name: "touching endpoints do not overlap",
			a:    interval(t, "2026-03-01T10:00:00Z", "2026-03-01T12:00:00Z"),
			b:    interval(t, "2026-03-01T12:00:00Z", "2026-03-01T14:00:00Z"),
			want: 0,
		},
		{
			name: "disjoint",
			a:    interval(t, "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z"),
			b:    interval(t, "2026-03-01T13:00:00Z", "2026-03-01T14:00:00Z"),
			want: 0,
		},
		{
			name: "identical",
			a:    interval(t, "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z"),
			b:    interval(t, "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z"),
			want: 3600,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverlapSeconds(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("OverlapSeconds = %f, want %f", got, tt.want)
			}
			if sym := OverlapSeconds(tt.b, tt.a); sym != got {
				t.Errorf("overlap is not symmetric: %f vs %f", got, sym)
			}
		})
	}
}

func TestIntersectSets(t *testing.T) {
	hub := []domain.DeficientInterval{
		interval(t, "2026-03-01T09:00:00Z", "2026-03-01T10:00:00Z"),
		interval(t, "2026-03-01T12:00:00Z", "2026-03-01T15:00:00Z"),
	}
	store := []domain.DeficientInterval{
		interval(t, "2026-03-01T09:30:00Z", "2026-03-01T13:00:00Z"),
		interval(t, "2026-03-01T14:00:00Z", "2026-03-01T16:00:00Z"),
	}

	// 09:30-10:00 (1800) + 12:00-13:00 (3600) + 14:00-15:00 (3600)
	want := 9000.0
	if got := IntersectSets(hub, store); got != want {
		t.Errorf("IntersectSets = %f, want %f", got, want)
	}

	if got := IntersectSets(nil, store); got != 0 {
		t.Errorf("empty hub set must produce 0, got %f", got)
	}
	if got := IntersectSets(hub, nil); got != 0 {
		t.Errorf("empty store set must produce 0, got %f", got)
	}
}
