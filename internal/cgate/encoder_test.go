package cgate

import "testing"

func TestEncodeSwitch(t *testing.T) {
	addr := Address{254, 56, 1}
	if got, want := EncodeSwitch("CLIPSAL", addr, true), "ON //CLIPSAL/254/56/1\n"; got != want {
		t.Errorf("EncodeSwitch(on) = %q, want %q", got, want)
	}
	if got, want := EncodeSwitch("CLIPSAL", addr, false), "OFF //CLIPSAL/254/56/1\n"; got != want {
		t.Errorf("EncodeSwitch(off) = %q, want %q", got, want)
	}
}

func TestEncodeRamp(t *testing.T) {
	addr := Address{254, 56, 1}
	if got, want := EncodeRamp("CLIPSAL", addr, 191, ""), "RAMP //CLIPSAL/254/56/1 191\n"; got != want {
		t.Errorf("EncodeRamp() = %q, want %q", got, want)
	}
	if got, want := EncodeRamp("CLIPSAL", addr, 191, "5s"), "RAMP //CLIPSAL/254/56/1 191 5s\n"; got != want {
		t.Errorf("EncodeRamp(with duration) = %q, want %q", got, want)
	}
}

func TestEncodeStop(t *testing.T) {
	addr := Address{254, 56, 1}
	if got, want := EncodeStop("CLIPSAL", addr), "TERMINATERAMP //CLIPSAL/254/56/1\n"; got != want {
		t.Errorf("EncodeStop() = %q, want %q", got, want)
	}
}

func TestEncodeGetLevel(t *testing.T) {
	addr := Address{254, 56, 1}
	if got, want := EncodeGetLevel("CLIPSAL", addr), "GET //CLIPSAL/254/56/1 level\n"; got != want {
		t.Errorf("EncodeGetLevel() = %q, want %q", got, want)
	}
}

func TestEncodeGetAll(t *testing.T) {
	if got, want := EncodeGetAll("CLIPSAL", 254, 56), "GET //CLIPSAL/254/56/*  level\n"; got != want {
		t.Errorf("EncodeGetAll() = %q, want %q", got, want)
	}
}

func TestEncodeGetTree(t *testing.T) {
	if got, want := EncodeGetTree(254), "TREEXML 254\n"; got != want {
		t.Errorf("EncodeGetTree() = %q, want %q", got, want)
	}
}

func TestParseRampPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		check   func(t *testing.T, got RampPayload)
	}{
		{
			name:    "S4 absolute percentage",
			payload: "75",
			check: func(t *testing.T, got RampPayload) {
				if got.Kind != RampAbsolute || got.Percent != 75 || got.Duration != "" {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:    "absolute with duration",
			payload: "75,5s",
			check: func(t *testing.T, got RampPayload) {
				if got.Kind != RampAbsolute || got.Percent != 75 || got.Duration != "5s" {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:    "on as switch",
			payload: "ON",
			check: func(t *testing.T, got RampPayload) {
				if got.Kind != RampSwitch || !got.On {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:    "increase is relative",
			payload: "INCREASE",
			check: func(t *testing.T, got RampPayload) {
				if got.Kind != RampRelative || !got.Increase {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:    "decrease is relative",
			payload: "DECREASE",
			check: func(t *testing.T, got RampPayload) {
				if got.Kind != RampRelative || got.Increase {
					t.Errorf("got %+v", got)
				}
			},
		},
		{name: "out of range percentage", payload: "150", wantErr: true},
		{name: "garbage", payload: "banana", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRampPayload(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestParsePositionPayload(t *testing.T) {
	got, err := ParsePositionPayload("42")
	if err != nil || got != 42 {
		t.Fatalf("got %d, %v", got, err)
	}
	if _, err := ParsePositionPayload("-1"); err == nil {
		t.Error("expected error for out-of-range percentage")
	}
}
