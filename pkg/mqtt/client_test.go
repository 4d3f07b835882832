package mqtt

import "testing"

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"fleet/v1/vehicles/VH-1/state", "fleet/v1/vehicles/VH-1/state", true},
		{"fleet/v1/vehicles/+/state", "fleet/v1/vehicles/VH-1/state", true},
		{"fleet/v1/vehicles/+/state", "fleet/v1/vehicles/VH-1/odometer", false},
		{"fleet/v1/#", "fleet/v1/vehicles/VH-1/state", true},
		{"fleet/v1/vehicles/+", "fleet/v1/vehicles/VH-1/state", false},
		{"fleet/v2/#", "fleet/v1/vehicles/VH-1/state", false},
		{"plain", "plain/extra", false},
	}

	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestTopicFilterSharedSubscription(t *testing.T) {
	if got := topicFilter("$share/boards/fleet/v1/vehicles/+/state"); got != "fleet/v1/vehicles/+/state" {
		t.Errorf("topicFilter stripped to %q", got)
	}
	if got := topicFilter("fleet/v1/vehicles/+/state"); got != "fleet/v1/vehicles/+/state" {
		t.Errorf("non-shared filter changed to %q", got)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewClient(&ClientConfig{}); err == nil {
		t.Fatal("expected error for missing broker url")
	}
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://127.0.0.1:1883"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsConnected() {
		t.Fatal("client should not report connected before Start")
	}
}
