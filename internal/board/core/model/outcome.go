package model

import "github.com/leetrental/fleetboard/internal/lifecycle"

// TransitionResult classifies the end of one transition attempt.
type TransitionResult string

const (
	// ResultSuccess: the record keeper applied the transition.
	ResultSuccess TransitionResult = "success"

	// ResultRejected: the record keeper gave a definitive no for a business
	// reason (e.g. a conflicting reservation). A normal outcome, not an
	// error; the snapshot stays trusted.
	ResultRejected TransitionResult = "rejected"

	// ResultFailed: transport or infrastructure error; the true state is
	// unknown to the board and the snapshot must be re-fetched.
	ResultFailed TransitionResult = "failed"
)

// CreatedDocument references a dependent business document the record keeper
// created as a transition side effect.
type CreatedDocument struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// TransitionOutcome is what the board surfaces after an attempt.
type TransitionOutcome struct {
	Result TransitionResult `json:"result"`

	// AppliedState is set on success only.
	AppliedState lifecycle.VehicleState `json:"appliedState,omitempty"`

	CreatedDocuments []CreatedDocument `json:"createdDocuments,omitempty"`

	// Message is the record keeper's human-readable explanation, passed
	// through verbatim.
	Message string `json:"message,omitempty"`
}

// Intent is one attempted state change arriving from the board.
type Intent struct {
	VehicleID string
	From      lifecycle.VehicleState
	To        lifecycle.VehicleState
}
