package discovery

import (
	"encoding/json"
	"testing"

	"github.com/cgateweb/bridge/internal/cgate"
)

func TestBuildConfigPayloadLightIncludesBrightness(t *testing.T) {
	addr := cgate.Address{Network: 254, Application: 56, Group: 1}
	raw, err := buildConfigPayload(254, addr, ClassLight, "Kitchen", addr.Slug())
	if err != nil {
		t.Fatalf("buildConfigPayload() error = %v", err)
	}
	var got configPayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.BrightnessStateTopic == "" || got.BrightnessCommandTopic == "" || got.BrightnessScale != 100 {
		t.Errorf("light payload missing brightness fields: %+v", got)
	}
	if got.StateTopic == "" || got.CommandTopic == "" {
		t.Errorf("light payload missing state/command topics: %+v", got)
	}
}

func TestBuildConfigPayloadCoverUsesPositionTopics(t *testing.T) {
	addr := cgate.Address{Network: 254, Application: 203, Group: 10}
	raw, err := buildConfigPayload(254, addr, ClassCover, "Lounge Blind", addr.Slug())
	if err != nil {
		t.Fatalf("buildConfigPayload() error = %v", err)
	}
	var got configPayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.PositionTopic == "" || got.SetPositionTopic == "" {
		t.Errorf("cover payload missing position topics: %+v", got)
	}
	if got.CommandTopic != "" {
		t.Errorf("cover payload unexpectedly has command_topic: %+v", got)
	}
}

func TestBuildConfigPayloadPIRIsStateOnly(t *testing.T) {
	addr := cgate.Address{Network: 254, Application: 57, Group: 5}
	raw, err := buildConfigPayload(254, addr, ClassPIR, "Hallway PIR", addr.Slug())
	if err != nil {
		t.Fatalf("buildConfigPayload() error = %v", err)
	}
	var got configPayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.StateTopic == "" {
		t.Errorf("pir payload missing state topic: %+v", got)
	}
	if got.CommandTopic != "" {
		t.Errorf("pir payload unexpectedly has command_topic: %+v", got)
	}
}

func TestBuildConfigPayloadUnrecognisedClassIsError(t *testing.T) {
	addr := cgate.Address{Network: 254, Application: 1, Group: 1}
	_, err := buildConfigPayload(254, addr, Class("thermostat"), "Nope", addr.Slug())
	if err == nil {
		t.Fatalf("buildConfigPayload() error = nil, want non-nil for unrecognised class")
	}
}
