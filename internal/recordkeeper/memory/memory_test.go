package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetrental/fleetboard/internal/recordkeeper"
)

func seeded() *Store {
	s := NewStore()
	s.AddVehicle(recordkeeper.VehicleRecord{ID: "VH-1", LicensePlate: "A 11111", State: "Available", Odometer: 42000})
	s.AddVehicle(recordkeeper.VehicleRecord{ID: "VH-2", LicensePlate: "B 22222", State: "Rented Out"})
	return s
}

func reservePayload() map[string]any {
	return map[string]any{
		"customer":   "CUST-007",
		"start_time": "2026-09-01T10:00:00Z",
		"end_time":   "2026-09-03T10:00:00Z",
	}
}

func TestReserveCreatesReservation(t *testing.T) {
	s := seeded()

	reply, err := s.AttemptTransition(context.Background(), "VH-1", "Available", "Reserved", reservePayload())
	require.NoError(t, err)
	require.True(t, reply.Success)
	assert.Equal(t, "Reserved", reply.AppliedState)
	require.Len(t, reply.CreatedDocuments, 1)
	assert.Equal(t, DocReservation, reply.CreatedDocuments[0].Type)
	assert.Equal(t, "RES-00001", reply.CreatedDocuments[0].ID)
}

func TestOverlappingReservationIsRejected(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	_, err := s.AttemptTransition(ctx, "VH-1", "Available", "Reserved", reservePayload())
	require.NoError(t, err)
	_, err = s.AttemptTransition(ctx, "VH-1", "Reserved", "Available", nil)
	require.NoError(t, err)

	// Cancelling releases the slot, so rebooking the same period works.
	reply, err := s.AttemptTransition(ctx, "VH-1", "Available", "Reserved", reservePayload())
	require.NoError(t, err)
	require.True(t, reply.Success)

	_, err = s.AttemptTransition(ctx, "VH-1", "Reserved", "Out for Delivery", map[string]any{
		"out_date_time": "2026-09-01T09:00:00Z",
		"out_mileage":   42100,
	})
	require.NoError(t, err)

	// VH-1 is no longer Available, so the overlap path needs a fresh vehicle.
	s.AddVehicle(recordkeeper.VehicleRecord{ID: "VH-3", State: "Available"})
	reply, err = s.AttemptTransition(ctx, "VH-3", "Available", "Reserved", reservePayload())
	require.NoError(t, err)
	assert.True(t, reply.Success, "reservations are per vehicle")
}

func TestOverlapOnSameVehicle(t *testing.T) {
	s := NewStore()
	s.AddVehicle(recordkeeper.VehicleRecord{ID: "VH-9", State: "Available"})
	ctx := context.Background()

	reply, err := s.AttemptTransition(ctx, "VH-9", "Available", "Reserved", reservePayload())
	require.NoError(t, err)
	require.True(t, reply.Success)

	// Push the vehicle back to Available while keeping the reservation,
	// simulating another operator's booking still on file.
	s.vehicles["VH-9"].State = "Available"

	overlapping := map[string]any{
		"customer":   "CUST-008",
		"start_time": "2026-09-02T10:00:00Z",
		"end_time":   "2026-09-04T10:00:00Z",
	}
	reply, err = s.AttemptTransition(ctx, "VH-9", "Available", "Reserved", overlapping)
	require.NoError(t, err)
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Message, "already reserved")
	assert.Contains(t, reply.Message, "RES-00001")
	assert.Equal(t, "Available", s.vehicles["VH-9"].State, "rejected attempt must not change state")
}

func TestStateMismatchRejected(t *testing.T) {
	s := seeded()

	reply, err := s.AttemptTransition(context.Background(), "VH-2", "Available", "Reserved", reservePayload())
	require.NoError(t, err)
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Message, "is in state Rented Out")
}

func TestIllegalTransitionRejected(t *testing.T) {
	s := seeded()

	reply, err := s.AttemptTransition(context.Background(), "VH-2", "Rented Out", "Reserved", nil)
	require.NoError(t, err)
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Message, "not allowed")
}

func TestHandoverCreatesAgreementWhenMissing(t *testing.T) {
	s := NewStore()
	s.AddVehicle(recordkeeper.VehicleRecord{ID: "VH-7", State: "Out for Delivery"})

	reply, err := s.AttemptTransition(context.Background(), "VH-7", "Out for Delivery", "Rented Out", map[string]any{
		"customer": "CUST-001",
	})
	require.NoError(t, err)
	require.True(t, reply.Success)

	types := map[string]bool{}
	for _, d := range reply.CreatedDocuments {
		types[d.Type] = true
	}
	assert.True(t, types[DocVehicleMovement])
	assert.True(t, types[DocRentalAgreement])
	assert.NotEmpty(t, s.vehicles["VH-7"].Agreement)
}

func TestMileageMovesOdometerForwardOnly(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	_, err := s.AttemptTransition(ctx, "VH-2", "Rented Out", "Due for Return", map[string]any{
		"expected_return_date": "2026-09-05T10:00:00Z",
	})
	require.NoError(t, err)

	reply, err := s.AttemptTransition(ctx, "VH-2", "Due for Return", "Returned (Inspection)", map[string]any{
		"in_date_time": "2026-09-05T11:00:00Z",
		"in_mileage":   1200,
	})
	require.NoError(t, err)
	require.True(t, reply.Success)
	assert.Equal(t, float64(1200), s.vehicles["VH-2"].Odometer)

	// A lower reading never winds the odometer back.
	s.vehicles["VH-2"].State = "Due for Return"
	_, err = s.AttemptTransition(ctx, "VH-2", "Due for Return", "Returned (Inspection)", map[string]any{
		"in_date_time": "2026-09-05T12:00:00Z",
		"in_mileage":   300,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1200), s.vehicles["VH-2"].Odometer)
}

func TestListVehiclesSortedByPlate(t *testing.T) {
	s := seeded()

	records, err := s.ListVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A 11111", records[0].LicensePlate)
	assert.Equal(t, "B 22222", records[1].LicensePlate)
}
