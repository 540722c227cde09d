package cgate

import "testing"

func TestParseEventLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantValid  bool
		wantType   string
		wantAction string
		wantAddr   Address
		wantLevel  *int
	}{
		{
			name:       "S1 lighting on with trailing metadata",
			line:       "lighting on 254/56/4  #sourceunit=8",
			wantValid:  true,
			wantType:   "lighting",
			wantAction: "on",
			wantAddr:   Address{254, 56, 4},
		},
		{
			name:       "S2 lighting ramp with level",
			line:       "lighting ramp 254/56/6 128",
			wantValid:  true,
			wantType:   "lighting",
			wantAction: "ramp",
			wantAddr:   Address{254, 56, 6},
			wantLevel:  intPtr(128),
		},
		{
			name:      "S3 clock two-segment address is invalid",
			line:      "clock date //CLIPSAL/254/223 2026-03-02",
			wantValid: false,
		},
		{
			name:      "empty line is invalid",
			line:      "",
			wantValid: false,
		},
		{
			name:      "fewer than three fields is invalid",
			line:      "lighting on",
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEventLine(tt.line)
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if !tt.wantValid {
				return
			}
			if got.DeviceType != tt.wantType {
				t.Errorf("DeviceType = %q, want %q", got.DeviceType, tt.wantType)
			}
			if got.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", got.Action, tt.wantAction)
			}
			if got.Address != tt.wantAddr {
				t.Errorf("Address = %+v, want %+v", got.Address, tt.wantAddr)
			}
			if tt.wantLevel != nil {
				if got.Level == nil || *got.Level != *tt.wantLevel {
					t.Errorf("Level = %v, want %v", got.Level, *tt.wantLevel)
				}
			}
		})
	}
}

func TestParseResponseLine(t *testing.T) {
	tests := []struct {
		name             string
		line             string
		wantOK           bool
		wantCode         int
		wantContinuation bool
		wantHasAddr      bool
		wantAddr         Address
		wantLevel        *int
	}{
		{"banner", "201 Service ready", true, 201, false, false, Address{}, nil},
		{"success", "200 OK", true, 200, false, false, Address{}, nil},
		{
			"object status with level",
			"300 //CLIPSAL/254/56/1: level=250",
			true, 300, false, true, Address{254, 56, 1}, intPtr(250),
		},
		{"continuation", "343-<Network>", true, 343, true, false, Address{}, nil},
		{"terminal", "343 ", true, 343, false, false, Address{}, nil},
		{"not a response line", "lighting on 254/56/4", false, 0, false, false, Address{}, nil},
		{"too short", "20", false, 0, false, false, Address{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseResponseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", got.Code, tt.wantCode)
			}
			if got.Continuation != tt.wantContinuation {
				t.Errorf("Continuation = %v, want %v", got.Continuation, tt.wantContinuation)
			}
			if got.HasAddress != tt.wantHasAddr {
				t.Errorf("HasAddress = %v, want %v", got.HasAddress, tt.wantHasAddr)
			}
			if tt.wantHasAddr && got.Address != tt.wantAddr {
				t.Errorf("Address = %+v, want %+v", got.Address, tt.wantAddr)
			}
			if tt.wantLevel != nil {
				if got.Level == nil || *got.Level != *tt.wantLevel {
					t.Errorf("Level = %v, want %v", got.Level, *tt.wantLevel)
				}
			}
		})
	}
}

func intPtr(n int) *int { return &n }
