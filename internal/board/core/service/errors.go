package service

import "errors"

var (
	// ErrVehicleUnknown reports a vehicle id with no snapshot in this session.
	ErrVehicleUnknown = errors.New("vehicle not on this board")

	// ErrAlreadyPending reports a second transition attempt on a vehicle
	// whose previous attempt has not finished. Attempts are rejected, never
	// queued.
	ErrAlreadyPending = errors.New("transition already pending for vehicle")

	// ErrStale reports an attempt on a vehicle whose snapshot was
	// invalidated by a failed outcome. Only a successful refresh clears it.
	ErrStale = errors.New("vehicle snapshot is stale, refresh required")

	// ErrNotPending reports a completion or cancellation without a begun
	// attempt.
	ErrNotPending = errors.New("no transition pending for vehicle")

	// ErrOutdatedIntent reports an intent whose from-state disagrees with
	// the cached snapshot: the board raced another session and must reload.
	ErrOutdatedIntent = errors.New("intent from-state does not match snapshot")
)
