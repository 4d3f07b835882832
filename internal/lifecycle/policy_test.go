package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnknownState(t *testing.T) {
	_, err := Resolve("Parked", StateReserved)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = Resolve(StateAvailable, "reserved")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestResolveRefusesNoOpAndAbsentPairs(t *testing.T) {
	_, err := Resolve(StateAvailable, StateAvailable)
	require.ErrorIs(t, err, ErrNotAllowed)

	// Not in the table: a rented vehicle cannot jump straight to Reserved.
	_, err = Resolve(StateRentedOut, StateReserved)
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = Resolve(StateDeactivated, StateAvailable)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestResolveReserveRequiresPeriod(t *testing.T) {
	reqs, err := Resolve(StateAvailable, StateReserved)
	require.NoError(t, err)
	require.NotEmpty(t, reqs)

	var start, end bool
	for _, r := range reqs {
		switch r.Name {
		case "start_time":
			start = r.Required && r.Kind == KindDateTime
		case "end_time":
			end = r.Required && r.Kind == KindDateTime
		}
	}
	assert.True(t, start, "start_time must be a required DateTime")
	assert.True(t, end, "end_time must be a required DateTime")
}

func TestResolveWorkshopNeedsReason(t *testing.T) {
	reqs, err := Resolve(StateReturnedForInspection, StateAtGarage)
	require.NoError(t, err)

	var workshop, issue bool
	for _, r := range reqs {
		switch r.Name {
		case "workshop":
			workshop = r.Required && r.Kind == KindLink
			assert.Equal(t, "Workshop", r.LinkTo)
		case "issue_description":
			issue = r.Required && r.Kind == KindText
			assert.Nil(t, r.Default, "issue description must not be silently defaulted")
		}
	}
	assert.True(t, workshop, "workshop link must be required")
	assert.True(t, issue, "issue description must be required")
}

func TestResolveEmptyMeansLegalWithoutData(t *testing.T) {
	reqs, err := Resolve(StateReserved, StateAvailable)
	require.NoError(t, err)
	require.NotNil(t, reqs)
	assert.Empty(t, reqs)
}

func TestTwoRoutesToRentedOutDiffer(t *testing.T) {
	walkIn, err := Resolve(StateAvailable, StateRentedOut)
	require.NoError(t, err)
	handover, err := Resolve(StateOutForDelivery, StateRentedOut)
	require.NoError(t, err)

	assert.NotEqual(t, names(walkIn), names(handover),
		"walk-in and delivery handover must carry different field sets")

	// The walk-in skips dispatch, so it has to capture the rental period.
	assert.Contains(t, names(walkIn), "start_time")
	assert.NotContains(t, names(handover), "start_time")
}

func TestResolveIsIdempotent(t *testing.T) {
	for from := range statesByPair() {
		a, errA := Resolve(from.From, from.To)
		b, errB := Resolve(from.From, from.To)
		require.Equal(t, errA, errB)
		require.Equal(t, a, b)
	}
}

func TestResolveReturnsCopies(t *testing.T) {
	a, err := Resolve(StateAvailable, StateReserved)
	require.NoError(t, err)
	a[0].Name = "tampered"

	b, err := Resolve(StateAvailable, StateReserved)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", b[0].Name)
}

func TestFieldNamesUniquePerRule(t *testing.T) {
	for key, rule := range policyTable {
		seen := map[string]bool{}
		for _, f := range rule.Fields {
			if seen[f.Name] {
				t.Errorf("%v: duplicate field %q", key, f.Name)
			}
			seen[f.Name] = true
		}
		if rule.Action == "" {
			t.Errorf("%v: rule without action name", key)
		}
	}
}

func TestPolicyTableStaysInsideCatalog(t *testing.T) {
	for key := range policyTable {
		if !IsKnown(key.From) || !IsKnown(key.To) {
			t.Errorf("%v references a state outside the catalog", key)
		}
		if key.From == key.To {
			t.Errorf("%v is a no-op pair", key)
		}
		if IsTerminal(key.From) {
			t.Errorf("%v originates from a terminal state", key)
		}
	}
}

func TestAllowedMatchesResolve(t *testing.T) {
	for _, from := range States() {
		for _, to := range States() {
			_, err := Resolve(from, to)
			if Allowed(from, to) != (err == nil) {
				t.Errorf("Allowed(%q, %q) disagrees with Resolve: %v", from, to, err)
			}
			if err != nil && !errors.Is(err, ErrNotAllowed) && !errors.Is(err, ErrInvalidState) {
				t.Errorf("Resolve(%q, %q) returned unexpected error %v", from, to, err)
			}
		}
	}
}

func names(reqs []FieldRequirement) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Name
	}
	return out
}

func statesByPair() map[TransitionKey]Rule {
	return policyTable
}
