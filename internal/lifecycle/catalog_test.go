package lifecycle

import "testing"

func TestCatalogOrderIsFixed(t *testing.T) {
	want := []VehicleState{
		StateAvailable,
		StateReserved,
		StateOutForDelivery,
		StateRentedOut,
		StateDueForReturn,
		StateReturnedForInspection,
		StateAtGarage,
		StateUnderMaintenance,
		StateAccidentRepair,
		StateDeactivated,
	}

	got := States()
	if len(got) != len(want) {
		t.Fatalf("catalog has %d states, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStatesReturnsCopy(t *testing.T) {
	s := States()
	s[0] = "Scrapped"
	if States()[0] != StateAvailable {
		t.Fatal("mutating the returned slice changed the catalog")
	}
}

func TestIsKnown(t *testing.T) {
	for _, s := range States() {
		if !IsKnown(s) {
			t.Errorf("IsKnown(%q) = false", s)
		}
	}

	// Spellings are canonical: no case folding, no trimming.
	for _, s := range []VehicleState{"available", "Rented out", " Available", "Custody", ""} {
		if IsKnown(s) {
			t.Errorf("IsKnown(%q) = true, want false", s)
		}
	}
}

func TestOnlyDeactivatedIsTerminal(t *testing.T) {
	for _, s := range States() {
		want := s == StateDeactivated
		if IsTerminal(s) != want {
			t.Errorf("IsTerminal(%q) = %v, want %v", s, !want, want)
		}
	}
}

func TestNoTransitionOriginatesFromTerminalState(t *testing.T) {
	for _, to := range States() {
		if Allowed(StateDeactivated, to) {
			t.Errorf("terminal state has outgoing transition to %q", to)
		}
	}
}
