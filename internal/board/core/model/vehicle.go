package model

import (
	"time"

	"github.com/leetrental/fleetboard/internal/lifecycle"
)

// VehicleSnapshot is the board's cached view of one vehicle. It is a
// read-through cache of the system of record, never authoritative: created on
// board load, mutated only by successful transition outcomes or a forced
// refresh, discarded with the session.
type VehicleSnapshot struct {
	ID    string                 `json:"id"`
	State lifecycle.VehicleState `json:"state"`

	LicensePlate  string  `json:"licensePlate,omitempty"`
	Model         string  `json:"model,omitempty"`
	ModelYear     int     `json:"modelYear,omitempty"`
	ChassisNumber string  `json:"chassisNumber,omitempty"`
	Color         string  `json:"color,omitempty"`
	Odometer      float64 `json:"odometer,omitempty"`
	Driver        string  `json:"driver,omitempty"`
	Location      string  `json:"location,omitempty"`

	// CurrentAgreementRef points at the rental agreement the vehicle is out
	// on, when any. Filled from created documents on handover.
	CurrentAgreementRef string `json:"currentAgreement,omitempty"`

	// OpenReservationRef and OpenServiceRef are convenience links to the
	// latest dependent documents the record keeper created.
	OpenReservationRef string `json:"openReservation,omitempty"`
	OpenServiceRef     string `json:"openService,omitempty"`
	LastMovementRef    string `json:"lastMovement,omitempty"`

	// FetchedAt is when this snapshot was last confirmed by the record
	// keeper (bulk load or refresh).
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
}

// Clone returns a copy the caller may hand out without exposing the cache.
func (s *VehicleSnapshot) Clone() VehicleSnapshot {
	return *s
}
