package media

import (
	"math"
	"testing"
)

func TestTicksToMillis(t *testing.T) {
	tests := []struct {
		name string
		raw  int64
		tb   Rational
		want int64
	}{
		{"90k clock", 90000, Rational{1, 90000}, 1000},
		{"frame index 25fps", 125, Rational{1, 25}, 5000},
		{"ntsc", 30, Rational{1001, 30000}, 1001},
		{"negative floors", -1, Rational{1, 90000}, -1},
		{"invalid time base", 100, Rational{0, 1}, 0},
		{"no pts", NoPTS, Rational{1, 1000}, 0},
		{"av time base", 10_000_000, Rational{1, 1_000_000}, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TicksToMillis(tt.raw, tt.tb); got != tt.want {
				t.Errorf("TicksToMillis(%d, %v) = %d, want %d", tt.raw, tt.tb, got, tt.want)
			}
		})
	}
}

func TestTicksToMillisLargeValues(t *testing.T) {
	// raw*1000 overflows int64, the result does not.
	raw := int64(math.MaxInt64 / 10)
	got := TicksToMillis(raw, Rational{1, 90000})
	want := raw / 90 // floor(raw*1000/90000) == floor(raw/90)
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestTicksToMillisMonotonic(t *testing.T) {
	tb := Rational{1001, 30000}
	prev := TicksToMillis(0, tb)
	for raw := int64(1); raw < 5000; raw++ {
		cur := TicksToMillis(raw, tb)
		if cur < prev {
			t.Fatalf("not monotonic at %d: %d < %d", raw, cur, prev)
		}
		prev = cur
	}
}

func TestMillisToTicksNeverOvershoots(t *testing.T) {
	tbs := []Rational{{1, 25}, {1, 90000}, {1001, 30000}, {1, 1000}}
	for _, tb := range tbs {
		for ms := int64(0); ms < 3000; ms += 7 {
			ticks := MillisToTicks(ms, tb)
			if back := TicksToMillis(ticks, tb); back > ms {
				t.Fatalf("tb %v: ms %d -> ticks %d -> %d overshoots", tb, ms, ticks, back)
			}
		}
	}
	if got := MillisToTicks(5000, Rational{1, 25}); got != 125 {
		t.Errorf("MillisToTicks(5000, 1/25) = %d, want 125", got)
	}
}
