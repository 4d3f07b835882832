package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState reports a state unknown to the catalog. This is a
	// programmer or configuration error, never a business condition.
	ErrInvalidState = errors.New("state not in catalog")

	// ErrNotAllowed reports a (from, to) pair absent from the policy table,
	// or a no-op pair. The caller must refuse the attempt before any side
	// effect; it must not coerce to a different target state.
	ErrNotAllowed = errors.New("transition not allowed")
)

// ValidationError reports a payload that does not satisfy the field
// requirements of a transition. It is recoverable: the operator is
// re-prompted. It is always raised before any network call.
type ValidationError struct {
	// Missing lists required fields absent or empty in the payload.
	Missing []string `json:"missing,omitempty"`

	// Unknown lists payload keys with no matching requirement.
	Unknown []string `json:"unknown,omitempty"`

	// Invalid maps field names to the reason their value was refused.
	Invalid map[string]string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown fields: %s", strings.Join(e.Unknown, ", ")))
	}
	for name, reason := range e.Invalid {
		parts = append(parts, fmt.Sprintf("invalid %s: %s", name, reason))
	}
	if len(parts) == 0 {
		return "invalid payload"
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Unknown) == 0 && len(e.Invalid) == 0
}

func (e *ValidationError) invalid(name, reason string) {
	if e.Invalid == nil {
		e.Invalid = map[string]string{}
	}
	e.Invalid[name] = reason
}
