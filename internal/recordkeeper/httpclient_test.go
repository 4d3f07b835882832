package recordkeeper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetrental/fleetboard/internal/recordkeeper"
	"github.com/leetrental/fleetboard/internal/recordkeeper/memory"
	"github.com/leetrental/fleetboard/internal/recordkeeper/stub"
	"github.com/leetrental/fleetboard/pkg/options"
)

func newClient(t *testing.T, endpoint string) recordkeeper.Client {
	t.Helper()
	opts := options.NewRecordkeeperOptions()
	opts.Endpoint = endpoint
	opts.Timeout = 2 * time.Second
	client, err := recordkeeper.NewHTTPClient(opts)
	require.NoError(t, err)
	return client
}

func newStubServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddVehicle(recordkeeper.VehicleRecord{ID: "VEH-001", State: "Available", LicensePlate: "B 1234 XY"})
	srv := httptest.NewServer(stub.New(options.NewHttpOptions(), store, nil).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func TestListVehicles(t *testing.T) {
	srv, _ := newStubServer(t)
	client := newClient(t, srv.URL)

	records, err := client.ListVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "VEH-001", records[0].ID)
	assert.Equal(t, "Available", records[0].State)
}

func TestAttemptTransitionApplied(t *testing.T) {
	srv, _ := newStubServer(t)
	client := newClient(t, srv.URL)

	reply, err := client.AttemptTransition(context.Background(), "VEH-001", "Available", "Reserved", map[string]any{
		"customer":   "CUST-001",
		"start_time": "2026-09-02T09:00:00Z",
		"end_time":   "2026-09-04T18:00:00Z",
	})
	require.NoError(t, err)
	assert.True(t, reply.Success)
	assert.Equal(t, "Reserved", reply.AppliedState)
	require.Len(t, reply.CreatedDocuments, 1)
	assert.Equal(t, "Reservation", reply.CreatedDocuments[0].Type)
}

func TestAttemptTransitionRejectionIsDefinitive(t *testing.T) {
	srv, _ := newStubServer(t)
	client := newClient(t, srv.URL)

	// The store believes the vehicle is Available; a stale board claiming
	// otherwise gets a rejection, not a transport error.
	reply, err := client.AttemptTransition(context.Background(), "VEH-001", "Rented Out", "Due for Return", map[string]any{
		"expected_return_date": "2026-09-05T12:00:00Z",
	})
	require.NoError(t, err, "a parseable refusal is a definitive answer")
	assert.False(t, reply.Success)
	assert.NotEmpty(t, reply.Message)
}

func TestAttemptTransitionServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := newClient(t, srv.URL)

	_, err := client.AttemptTransition(context.Background(), "VEH-001", "Available", "Reserved", nil)
	assert.ErrorIs(t, err, recordkeeper.ErrUnreachable)
}

func TestAttemptTransitionUndecodableBodyIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>gateway timeout</html>"))
	}))
	t.Cleanup(srv.Close)
	client := newClient(t, srv.URL)

	_, err := client.AttemptTransition(context.Background(), "VEH-001", "Available", "Reserved", nil)
	assert.ErrorIs(t, err, recordkeeper.ErrUnreachable, "a 200 with garbage is not proof the transition applied")
}

func TestAttemptTransitionConnectionRefusedIsUnreachable(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1")

	_, err := client.AttemptTransition(context.Background(), "VEH-001", "Available", "Reserved", nil)
	assert.ErrorIs(t, err, recordkeeper.ErrUnreachable)
}

func TestBearerTokenForwarded(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)

	opts := options.NewRecordkeeperOptions()
	opts.Endpoint = srv.URL
	opts.Token = "s3cret"
	client, err := recordkeeper.NewHTTPClient(opts)
	require.NoError(t, err)

	_, err = client.ListVehicles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", got)
}
