package lifecycle

import "fmt"

// TransitionKey is an ordered pair of lifecycle states. Keys are unique in
// the policy table; a pair absent from the table is an illegal transition.
type TransitionKey struct {
	From VehicleState
	To   VehicleState
}

// Rule is the policy for one legal transition: the operational action name
// used by the back office, plus the ordered field requirements the operator
// must satisfy. An empty Fields list means legal with no extra data.
type Rule struct {
	Action string
	Fields []FieldRequirement
}

func req(name string, kind FieldKind) FieldRequirement {
	return FieldRequirement{Name: name, Kind: kind, Required: true}
}

func opt(name string, kind FieldKind) FieldRequirement {
	return FieldRequirement{Name: name, Kind: kind}
}

func link(name, entity string, required bool) FieldRequirement {
	return FieldRequirement{Name: name, Kind: KindLink, Required: required, LinkTo: entity}
}

func sel(name string, required bool, options ...string) FieldRequirement {
	return FieldRequirement{Name: name, Kind: KindSelect, Required: required, Options: options}
}

// policyTable is hand-curated domain knowledge. Two routes to the same target
// state stay distinct because real operational paths skip or include the
// dispatch step (walk-in handover vs delivery handover).
var policyTable = map[TransitionKey]Rule{
	{StateAvailable, StateReserved}: {
		Action: "Reserve",
		Fields: []FieldRequirement{
			link("customer", "Customer", true),
			req("start_time", KindDateTime),
			req("end_time", KindDateTime),
			link("pickup_location", "Location", false),
			link("drop_location", "Location", false),
		},
	},
	{StateReserved, StateAvailable}: {
		Action: "Cancel Reservation",
	},
	{StateReserved, StateOutForDelivery}: {
		Action: "Dispatch",
		Fields: []FieldRequirement{
			link("driver", "Driver", false),
			req("out_date_time", KindDateTime),
			req("out_mileage", KindNumber),
			opt("out_fuel_level", KindText),
		},
	},
	{StateAvailable, StateOutForDelivery}: {
		Action: "Dispatch",
		Fields: []FieldRequirement{
			link("driver", "Driver", false),
			req("out_date_time", KindDateTime),
			req("out_mileage", KindNumber),
			opt("out_fuel_level", KindText),
		},
	},
	{StateOutForDelivery, StateRentedOut}: {
		Action: "Hand Over",
		Fields: []FieldRequirement{
			req("agreement_no", KindText),
			link("customer", "Customer", true),
			opt("delivery_location", KindText),
		},
	},
	{StateAvailable, StateRentedOut}: {
		// Walk-in rental: no reservation, no dispatch leg, so the agreement
		// is assembled on the spot.
		Action: "Walk-in Handover",
		Fields: []FieldRequirement{
			link("customer", "Customer", true),
			req("start_time", KindDateTime),
			req("end_time", KindDateTime),
			req("out_mileage", KindNumber),
			opt("agreement_no", KindText),
			opt("rent_rate", KindNumber),
		},
	},
	{StateReserved, StateRentedOut}: {
		Action: "Hand Over",
		Fields: []FieldRequirement{
			link("customer", "Customer", true),
			req("out_date_time", KindDateTime),
			req("out_mileage", KindNumber),
			opt("out_fuel_level", KindText),
			opt("agreement_no", KindText),
		},
	},
	{StateRentedOut, StateDueForReturn}: {
		Action: "Recall",
		Fields: []FieldRequirement{
			req("expected_return_date", KindDateTime),
			link("return_location", "Location", false),
		},
	},
	{StateDueForReturn, StateReturnedForInspection}: {
		Action: "Check-in",
		Fields: []FieldRequirement{
			req("in_date_time", KindDateTime),
			req("in_mileage", KindNumber),
			opt("in_fuel_level", KindText),
			opt("in_notes", KindText),
		},
	},
	{StateReturnedForInspection, StateAvailable}: {
		Action: "Ready",
		Fields: []FieldRequirement{
			sel("inspection_status", true, "Pass", "Fail"),
			opt("inspection_notes", KindText),
		},
	},
	{StateReturnedForInspection, StateAtGarage}: {
		// A vehicle never goes to a workshop without a stated reason.
		Action: "Send to Workshop",
		Fields: []FieldRequirement{
			link("workshop", "Workshop", true),
			req("issue_description", KindText),
		},
	},
	{StateAvailable, StateAtGarage}: {
		Action: "Send to Workshop",
		Fields: []FieldRequirement{
			link("workshop", "Workshop", true),
			req("issue_description", KindText),
		},
	},
	{StateRentedOut, StateAtGarage}: {
		Action: "Send to Workshop",
		Fields: []FieldRequirement{
			link("workshop", "Workshop", true),
			req("issue_description", KindText),
		},
	},
	{StateAtGarage, StateUnderMaintenance}: {
		Action: "Start Maintenance",
		Fields: []FieldRequirement{
			link("service_type", "Service Type", true),
			req("description", KindText),
			req("date", KindDate),
			opt("cost", KindNumber),
			link("vendor", "Supplier", false),
		},
	},
	{StateAvailable, StateUnderMaintenance}: {
		Action: "Start Maintenance",
		Fields: []FieldRequirement{
			link("service_type", "Service Type", true),
			req("description", KindText),
			req("date", KindDate),
			opt("cost", KindNumber),
			link("vendor", "Supplier", false),
			opt("note", KindText),
		},
	},
	{StateUnderMaintenance, StateAvailable}: {
		Action: "Job Done",
		Fields: []FieldRequirement{
			req("service_completed", KindBoolean),
			opt("completion_notes", KindText),
		},
	},
	{StateUnderMaintenance, StateAtGarage}: {
		Action: "Hold at Workshop",
	},
	{StateAvailable, StateAccidentRepair}: {
		Action: "Incident",
		Fields: []FieldRequirement{
			req("accident_date", KindDate),
			req("accident_description", KindText),
			opt("repair_cost", KindNumber),
			{Name: "insurance_claim", Kind: KindBoolean, Default: false},
		},
	},
	{StateRentedOut, StateAccidentRepair}: {
		Action: "Incident",
		Fields: []FieldRequirement{
			req("accident_date", KindDate),
			req("accident_description", KindText),
			link("driver_involved", "Customer", false),
			opt("repair_cost", KindNumber),
			{Name: "insurance_claim", Kind: KindBoolean, Default: false},
		},
	},
	{StateAtGarage, StateAccidentRepair}: {
		Action: "Incident",
		Fields: []FieldRequirement{
			req("accident_date", KindDate),
			req("accident_description", KindText),
			opt("repair_cost", KindNumber),
			{Name: "insurance_claim", Kind: KindBoolean, Default: false},
		},
	},
	{StateAccidentRepair, StateAtGarage}: {
		Action: "Tow to Workshop",
		Fields: []FieldRequirement{
			link("workshop", "Workshop", true),
			opt("notes", KindText),
		},
	},
	{StateAccidentRepair, StateUnderMaintenance}: {
		Action: "Start Maintenance",
	},
	{StateAccidentRepair, StateAvailable}: {
		Action: "Repair Completed",
		Fields: []FieldRequirement{
			req("repair_completed", KindBoolean),
			opt("repair_notes", KindText),
			opt("final_cost", KindNumber),
		},
	},
	{StateAtGarage, StateAvailable}: {
		Action: "Return from Workshop",
		Fields: []FieldRequirement{
			req("garage_clearance", KindBoolean),
			opt("clearance_notes", KindText),
		},
	},
	{StateAvailable, StateDeactivated}: {
		Action: "Deactivate",
	},
}

// Lookup returns the rule for key, if the transition is legal.
func Lookup(key TransitionKey) (Rule, bool) {
	r, ok := policyTable[key]
	return r, ok
}

// Allowed reports whether (from, to) is a legal transition. Both states must
// be catalog members and distinct.
func Allowed(from, to VehicleState) bool {
	if !IsKnown(from) || !IsKnown(to) || from == to {
		return false
	}
	_, ok := policyTable[TransitionKey{From: from, To: to}]
	return ok
}

// ActionName returns the operational action label for a legal transition,
// or "" when the pair is not in the table.
func ActionName(from, to VehicleState) string {
	r, ok := policyTable[TransitionKey{From: from, To: to}]
	if !ok {
		return ""
	}
	return r.Action
}

// Resolve returns the field requirements to present to the operator for the
// transition (from, to).
//
// Unknown states fail with ErrInvalidState. A no-op pair (from == to) or a
// pair absent from the table fails with ErrNotAllowed; the caller must refuse
// the attempt before any side effect. A legal transition with no extra data
// returns an empty, non-nil slice. The result is always a copy and calls are
// idempotent.
func Resolve(from, to VehicleState) ([]FieldRequirement, error) {
	if !IsKnown(from) {
		return nil, fmt.Errorf("from state %q: %w", from, ErrInvalidState)
	}
	if !IsKnown(to) {
		return nil, fmt.Errorf("to state %q: %w", to, ErrInvalidState)
	}
	if from == to {
		return nil, fmt.Errorf("%q to itself: %w", from, ErrNotAllowed)
	}

	rule, ok := policyTable[TransitionKey{From: from, To: to}]
	if !ok {
		return nil, fmt.Errorf("%q to %q: %w", from, to, ErrNotAllowed)
	}

	out := make([]FieldRequirement, len(rule.Fields))
	copy(out, rule.Fields)
	return out, nil
}
