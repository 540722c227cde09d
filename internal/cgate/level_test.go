package cgate

import "testing"

func TestLevelMappingRoundTrip(t *testing.T) {
	// §8 invariant 2: pctOfRaw(rawOfPct(p)) == p for all p in [0,100]
	// within ±1 due to rounding.
	for p := 0; p <= 100; p++ {
		raw := RawOfPercent(p)
		got := PercentOfRaw(raw)
		diff := got - p
		if diff < -1 || diff > 1 {
			t.Errorf("round trip for %d%%: raw=%d back=%d%%, diff %d exceeds ±1", p, raw, got, diff)
		}
	}
}

func TestPercentOfRaw(t *testing.T) {
	tests := []struct {
		raw  int
		want int
	}{
		{0, 0},
		{255, 100},
		{128, 50},
		{250, 98},
	}
	for _, tt := range tests {
		if got := PercentOfRaw(tt.raw); got != tt.want {
			t.Errorf("PercentOfRaw(%d) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestRawOfPercent(t *testing.T) {
	tests := []struct {
		pct  int
		want int
	}{
		{0, 0},
		{100, 255},
		{75, 191},
	}
	for _, tt := range tests {
		if got := RawOfPercent(tt.pct); got != tt.want {
			t.Errorf("RawOfPercent(%d) = %d, want %d", tt.pct, got, tt.want)
		}
	}
}

func TestClampRelativeStep(t *testing.T) {
	tests := []struct {
		name     string
		raw      int
		increase bool
		want     int
	}{
		{"increase clamps at 255", 250, true, 255},
		{"decrease mid range", 100, false, 74},
		{"decrease clamps at 0", 10, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampRelativeStep(tt.raw, tt.increase); got != tt.want {
				t.Errorf("ClampRelativeStep(%d, %v) = %d, want %d", tt.raw, tt.increase, got, tt.want)
			}
		})
	}
}
