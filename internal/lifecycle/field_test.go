package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reserveReqs(t *testing.T) []FieldRequirement {
	t.Helper()
	reqs, err := Resolve(StateAvailable, StateReserved)
	require.NoError(t, err)
	return reqs
}

func TestValidatePayloadMissingRequired(t *testing.T) {
	// Only a start time: customer and end_time are required too.
	_, err := ValidatePayload(reserveReqs(t), Payload{
		"start_time": "2026-09-01T10:00:00Z",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "end_time")
	assert.Contains(t, verr.Missing, "customer")
	assert.NotContains(t, verr.Missing, "pickup_location")
}

func TestValidatePayloadEmptyStringCountsAsMissing(t *testing.T) {
	reqs, err := Resolve(StateReturnedForInspection, StateAtGarage)
	require.NoError(t, err)

	_, err = ValidatePayload(reqs, Payload{
		"workshop":          "WS-001",
		"issue_description": "",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "issue_description")
}

func TestValidatePayloadUnknownField(t *testing.T) {
	_, err := ValidatePayload(reserveReqs(t), Payload{
		"customer":   "CUST-007",
		"start_time": "2026-09-01T10:00:00Z",
		"end_time":   "2026-09-03T10:00:00Z",
		"color":      "red",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"color"}, verr.Unknown)
}

func TestValidatePayloadKinds(t *testing.T) {
	tests := []struct {
		name    string
		req     FieldRequirement
		value   any
		invalid bool
	}{
		{"number from int", req("out_mileage", KindNumber), 42000, false},
		{"number from float", req("out_mileage", KindNumber), 42000.5, false},
		{"number from numeric string", req("out_mileage", KindNumber), "42000", false},
		{"number from junk", req("out_mileage", KindNumber), "forty", true},
		{"date ok", req("accident_date", KindDate), "2026-08-30", false},
		{"date with time refused", req("accident_date", KindDate), "2026-08-30T10:00:00Z", true},
		{"datetime ok", req("start_time", KindDateTime), "2026-09-01T10:00:00+04:00", false},
		{"datetime bare date refused", req("start_time", KindDateTime), "2026-09-01", true},
		{"select ok", sel("inspection_status", true, "Pass", "Fail"), "Pass", false},
		{"select outside options", sel("inspection_status", true, "Pass", "Fail"), "Maybe", true},
		{"boolean ok", req("service_completed", KindBoolean), true, false},
		{"boolean from string refused", req("service_completed", KindBoolean), "yes", true},
		{"link ok", link("workshop", "Workshop", true), "WS-001", false},
		{"text from number refused", req("description", KindText), 12, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePayload([]FieldRequirement{tt.req}, Payload{tt.req.Name: tt.value})
			if tt.invalid {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Invalid, tt.req.Name)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePayloadResolvesDefaults(t *testing.T) {
	reqs, err := Resolve(StateAvailable, StateAccidentRepair)
	require.NoError(t, err)

	resolved, err := ValidatePayload(reqs, Payload{
		"accident_date":        "2026-08-30",
		"accident_description": "rear bumper dent",
	})
	require.NoError(t, err)

	// Omitted optional field with a default gets the default.
	assert.Equal(t, false, resolved["insurance_claim"])
	// Omitted optional field without a default stays absent.
	_, ok := resolved["repair_cost"]
	assert.False(t, ok)
}

func TestValidatePayloadDoesNotMutateInput(t *testing.T) {
	in := Payload{
		"accident_date":        "2026-08-30",
		"accident_description": "windshield crack",
	}
	reqs, err := Resolve(StateAvailable, StateAccidentRepair)
	require.NoError(t, err)

	_, err = ValidatePayload(reqs, in)
	require.NoError(t, err)
	assert.Len(t, in, 2)
}
