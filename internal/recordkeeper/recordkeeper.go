// Package recordkeeper defines the contract with the system of record: the
// single attempt-transition operation and the bulk vehicle read used to
// populate and refresh board snapshots.
package recordkeeper

import (
	"context"
	"errors"
)

// ErrUnreachable wraps any transport or infrastructure failure: the record
// keeper was not reached or gave no definitive answer, so the client's view
// of the vehicle can no longer be trusted.
var ErrUnreachable = errors.New("record keeper unreachable")

// AttemptReply is the record keeper's definitive answer to one transition
// attempt. Success false means the transition was refused for a business
// reason; Message explains it.
type AttemptReply struct {
	Success          bool       `json:"success"`
	AppliedState     string     `json:"appliedState,omitempty"`
	CreatedDocuments []Document `json:"createdDocuments,omitempty"`
	Message          string     `json:"message,omitempty"`
}

// Document references a business document created as a side effect.
type Document struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// VehicleRecord is one row of the bulk read. States travel as canonical
// catalog spellings; the client performs no normalization.
type VehicleRecord struct {
	ID            string  `json:"id"`
	State         string  `json:"state"`
	LicensePlate  string  `json:"licensePlate,omitempty"`
	Model         string  `json:"model,omitempty"`
	ModelYear     int     `json:"modelYear,omitempty"`
	ChassisNumber string  `json:"chassisNumber,omitempty"`
	Color         string  `json:"color,omitempty"`
	Odometer      float64 `json:"odometer,omitempty"`
	Driver        string  `json:"driver,omitempty"`
	Location      string  `json:"location,omitempty"`
	Agreement     string  `json:"agreement,omitempty"`
}

// Client is the board's only wire-level contact with the back office.
type Client interface {
	// AttemptTransition submits one state change. A non-nil reply is a
	// definitive answer (applied or rejected). An error means the record
	// keeper was not reached or answered indistinctly; it wraps
	// ErrUnreachable and the caller must treat the vehicle state as unknown.
	AttemptTransition(ctx context.Context, vehicleID, from, to string, payload map[string]any) (*AttemptReply, error)

	// ListVehicles returns the authoritative state of the whole fleet.
	ListVehicles(ctx context.Context) ([]VehicleRecord, error)
}
