package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetrental/fleetboard/internal/board/core/model"
	"github.com/leetrental/fleetboard/internal/lifecycle"
	"github.com/leetrental/fleetboard/internal/recordkeeper"
)

// fakeKeeper counts attempts so tests can assert that local refusals never
// reach the wire and that an attempt is issued exactly once.
type fakeKeeper struct {
	attempts int
	lists    int

	attemptFn func(vehicleID, from, to string, payload map[string]any) (*recordkeeper.AttemptReply, error)
	listFn    func() ([]recordkeeper.VehicleRecord, error)
}

func (f *fakeKeeper) AttemptTransition(ctx context.Context, vehicleID, from, to string, payload map[string]any) (*recordkeeper.AttemptReply, error) {
	f.attempts++
	if f.attemptFn == nil {
		return &recordkeeper.AttemptReply{Success: true, AppliedState: to}, nil
	}
	return f.attemptFn(vehicleID, from, to, payload)
}

func (f *fakeKeeper) ListVehicles(ctx context.Context) ([]recordkeeper.VehicleRecord, error) {
	f.lists++
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn()
}

func TestExecuteRefusesIllegalPairOffline(t *testing.T) {
	rk := &fakeKeeper{}
	exec := NewExecutor(rk, nil)

	snap := &model.VehicleSnapshot{ID: "VEH-001", State: lifecycle.StateRentedOut}
	_, err := exec.Execute(context.Background(), snap, lifecycle.StateReserved, nil)

	require.ErrorIs(t, err, lifecycle.ErrNotAllowed)
	assert.Equal(t, 0, rk.attempts, "illegal pair must be refused before any network call")
	assert.Equal(t, lifecycle.StateRentedOut, snap.State)
}

func TestExecuteRefusesInvalidPayloadOffline(t *testing.T) {
	rk := &fakeKeeper{}
	exec := NewExecutor(rk, nil)

	snap := &model.VehicleSnapshot{ID: "VEH-001", State: lifecycle.StateAvailable}
	_, err := exec.Execute(context.Background(), snap, lifecycle.StateReserved, lifecycle.Payload{
		"customer": "CUST-001",
		// start_time and end_time missing
	})

	var verr *lifecycle.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "start_time")
	assert.Contains(t, verr.Missing, "end_time")
	assert.Equal(t, 0, rk.attempts)
}

func TestExecuteSuccessAppliesStateAndDocuments(t *testing.T) {
	rk := &fakeKeeper{
		attemptFn: func(vehicleID, from, to string, payload map[string]any) (*recordkeeper.AttemptReply, error) {
			return &recordkeeper.AttemptReply{
				Success:      true,
				AppliedState: to,
				CreatedDocuments: []recordkeeper.Document{
					{Type: "Reservation", ID: "RES-00042"},
				},
			}, nil
		},
	}
	exec := NewExecutor(rk, nil)

	snap := &model.VehicleSnapshot{ID: "VEH-001", State: lifecycle.StateAvailable}
	outcome, err := exec.Execute(context.Background(), snap, lifecycle.StateReserved, lifecycle.Payload{
		"customer":   "CUST-001",
		"start_time": "2026-09-02T09:00:00Z",
		"end_time":   "2026-09-04T18:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ResultSuccess, outcome.Result)
	assert.Equal(t, lifecycle.StateReserved, outcome.AppliedState)
	assert.Equal(t, lifecycle.StateReserved, snap.State)
	assert.Equal(t, "RES-00042", snap.OpenReservationRef)
	assert.Equal(t, 1, rk.attempts)
}

func TestExecuteSuccessAdvancesOdometerForwardOnly(t *testing.T) {
	exec := NewExecutor(&fakeKeeper{}, nil)

	snap := &model.VehicleSnapshot{ID: "VEH-001", State: lifecycle.StateAvailable, Odometer: 42000}
	_, err := exec.Execute(context.Background(), snap, lifecycle.StateOutForDelivery, lifecycle.Payload{
		"out_date_time": "2026-09-02T09:00:00Z",
		"out_mileage":   41000,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(42000), snap.Odometer, "a lower reading must not wind the odometer back")

	snap.State = lifecycle.StateAvailable
	_, err = exec.Execute(context.Background(), snap, lifecycle.StateOutForDelivery, lifecycle.Payload{
		"out_date_time": "2026-09-02T09:00:00Z",
		"out_mileage":   43500,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(43500), snap.Odometer)
}

func TestExecuteRejectedLeavesSnapshotUntouched(t *testing.T) {
	const reason = "Vehicle VEH-001 is already reserved from 2026-09-02 09:00 to 2026-09-04 18:00 (Reservation: RES-00001)"
	rk := &fakeKeeper{
		attemptFn: func(vehicleID, from, to string, payload map[string]any) (*recordkeeper.AttemptReply, error) {
			return &recordkeeper.AttemptReply{Success: false, Message: reason}, nil
		},
	}
	exec := NewExecutor(rk, nil)

	snap := &model.VehicleSnapshot{ID: "VEH-001", State: lifecycle.StateAvailable}
	outcome, err := exec.Execute(context.Background(), snap, lifecycle.StateReserved, lifecycle.Payload{
		"customer":   "CUST-002",
		"start_time": "2026-09-02T10:00:00Z",
		"end_time":   "2026-09-03T10:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ResultRejected, outcome.Result)
	assert.Equal(t, reason, outcome.Message, "the record keeper's explanation is passed through verbatim")
	assert.Equal(t, lifecycle.StateAvailable, snap.State)
	assert.Empty(t, snap.OpenReservationRef)
}

func TestExecuteTransportErrorYieldsFailed(t *testing.T) {
	rk := &fakeKeeper{
		attemptFn: func(vehicleID, from, to string, payload map[string]any) (*recordkeeper.AttemptReply, error) {
			return nil, errors.New("dial tcp 127.0.0.1:8090: connect: connection refused")
		},
	}
	exec := NewExecutor(rk, nil)

	snap := &model.VehicleSnapshot{ID: "VEH-001", State: lifecycle.StateReserved}
	outcome, err := exec.Execute(context.Background(), snap, lifecycle.StateAvailable, nil)

	require.NoError(t, err)
	assert.Equal(t, model.ResultFailed, outcome.Result)
	assert.Equal(t, lifecycle.StateReserved, snap.State, "a failed attempt must not guess at the resulting state")
	assert.Equal(t, 1, rk.attempts, "failed attempts are never retried")
}

func TestExecuteReturnToAvailableClearsAgreement(t *testing.T) {
	exec := NewExecutor(&fakeKeeper{}, nil)

	snap := &model.VehicleSnapshot{
		ID:                  "VEH-001",
		State:               lifecycle.StateUnderMaintenance,
		CurrentAgreementRef: "AGR-00007",
	}
	_, err := exec.Execute(context.Background(), snap, lifecycle.StateAvailable, lifecycle.Payload{
		"service_completed": true,
	})

	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateAvailable, snap.State)
	assert.Empty(t, snap.CurrentAgreementRef)
}
