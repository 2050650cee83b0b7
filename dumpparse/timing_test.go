package dumpparse

import (
	"math"
	"testing"
)

func TestDelta(t *testing.T) {
	common := TimeSig{Num: 4, Den: 4}
	tests := []struct {
		name   string
		from   Cursor
		to     Position
		want   Elapsed
		millis float64
	}{
		{
			name:   "same position",
			from:   Cursor{Pos: Position{2, 3, 100}, Sig: common, Tempo: 500},
			to:     Position{2, 3, 100},
			want:   Elapsed{0, 0, 0},
			millis: 0,
		},
		{
			name:   "one measure",
			from:   Cursor{Pos: Position{1, 1, 0}, Sig: common, Tempo: 500},
			to:     Position{2, 1, 0},
			want:   Elapsed{1, 0, 0},
			millis: 2000,
		},
		{
			name:   "beat borrows measure",
			from:   Cursor{Pos: Position{3, 4, 0}, Sig: common, Tempo: 500},
			to:     Position{4, 1, 0},
			want:   Elapsed{0, 1, 0},
			millis: 500,
		},
		{
			name:   "division borrows beat",
			from:   Cursor{Pos: Position{1, 1, 240}, Sig: common, Tempo: 500},
			to:     Position{1, 2, 0},
			want:   Elapsed{0, 0, 240},
			millis: 250,
		},
		{
			name:   "both borrow",
			from:   Cursor{Pos: Position{1, 4, 240}, Sig: common, Tempo: 500},
			to:     Position{2, 1, 0},
			want:   Elapsed{0, 0, 240},
			millis: 250,
		},
		{
			name:   "three four measure",
			from:   Cursor{Pos: Position{1, 1, 0}, Sig: TimeSig{3, 4}, Tempo: 500},
			to:     Position{2, 1, 0},
			want:   Elapsed{1, 0, 0},
			millis: 1500,
		},
		{
			name:   "six eight scales whole sum",
			from:   Cursor{Pos: Position{1, 5, 0}, Sig: TimeSig{6, 8}, Tempo: 400},
			to:     Position{2, 2, 0},
			want:   Elapsed{0, 3, 0},
			millis: 900,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, millis := Delta(tt.from, tt.to, 480)
			if got != tt.want {
				t.Fatalf("Delta elapsed = %v, want %v", got, tt.want)
			}
			if math.Abs(millis-tt.millis) > 1e-9 {
				t.Fatalf("Delta millis = %v, want %v", millis, tt.millis)
			}
		})
	}
}

func TestPositionString(t *testing.T) {
	if got := (Position{12, 3, 45}).String(); got != "12:3:45" {
		t.Fatalf("String() = %q", got)
	}
	if got := (TimeSig{6, 8}).String(); got != "6/8" {
		t.Fatalf("String() = %q", got)
	}
}
