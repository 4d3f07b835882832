// Package lifecycle holds the vehicle lifecycle domain: the closed state
// catalog, the transition policy table with its typed field requirements, and
// payload validation. Everything here is pure; network and persistence live
// with the callers.
package lifecycle

// VehicleState is one operational state a vehicle occupies. The string value
// is the canonical spelling used on the wire by the system of record; it is
// case- and spelling-sensitive and never normalized.
type VehicleState string

const (
	StateAvailable             VehicleState = "Available"
	StateReserved              VehicleState = "Reserved"
	StateOutForDelivery        VehicleState = "Out for Delivery"
	StateRentedOut             VehicleState = "Rented Out"
	StateDueForReturn          VehicleState = "Due for Return"
	StateReturnedForInspection VehicleState = "Returned (Inspection)"
	StateAtGarage              VehicleState = "At Garage"
	StateUnderMaintenance      VehicleState = "Under Maintenance"
	StateAccidentRepair        VehicleState = "Accident/Repair"
	StateDeactivated           VehicleState = "Deactivated"
)

// catalog is the closed, display-ordered list of lifecycle states. Fixed at
// deploy time, not user-editable at runtime.
var catalog = []VehicleState{
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

var catalogSet = func() map[VehicleState]struct{} {
	set := make(map[VehicleState]struct{}, len(catalog))
	for _, s := range catalog {
		set[s] = struct{}{}
	}
	return set
}()

// States returns the catalog in display order. The returned slice is a copy.
func States() []VehicleState {
	out := make([]VehicleState, len(catalog))
	copy(out, catalog)
	return out
}

// IsKnown reports whether s is a member of the catalog.
func IsKnown(s VehicleState) bool {
	_, ok := catalogSet[s]
	return ok
}

// IsTerminal reports whether no transitions may originate from s.
func IsTerminal(s VehicleState) bool {
	return s == StateDeactivated
}

// InitialState is the state a vehicle enters the fleet in.
func InitialState() VehicleState {
	return StateAvailable
}
