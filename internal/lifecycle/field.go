package lifecycle

import (
	"fmt"
	"strconv"
	"time"
)

// FieldKind is the closed set of data-entry field types a transition may
// require. Loosely-typed option strings from the back office become checked
// variants here.
type FieldKind string

const (
	KindText     FieldKind = "Text"
	KindNumber   FieldKind = "Number"
	KindDate     FieldKind = "Date"
	KindDateTime FieldKind = "DateTime"
	KindSelect   FieldKind = "Select"
	KindLink     FieldKind = "Link"
	KindBoolean  FieldKind = "Boolean"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

// FieldRequirement describes one value the operator must (or may) supply
// before a transition is submitted. The order of requirements within a rule
// is the presentation order of the data-entry dialog.
type FieldRequirement struct {
	// Name is unique within one transition rule.
	Name string `json:"name"`

	Kind FieldKind `json:"kind"`

	Required bool `json:"required"`

	// Default is substituted for omitted optional fields. Nil means no
	// default. Never applied to required fields.
	Default any `json:"default,omitempty"`

	// Options constrains Select fields to a closed value list.
	Options []string `json:"options,omitempty"`

	// LinkTo names the linked entity type for Link fields
	// (e.g. "Customer", "Workshop").
	LinkTo string `json:"linkTo,omitempty"`
}

// Payload carries the collected field values of one transition attempt,
// keyed by requirement name.
type Payload map[string]any

// ValidatePayload checks payload against the requirement list: all required
// fields present and non-empty, no unknown keys, every value acceptable for
// its kind. It returns the payload with defaults resolved for omitted
// optional fields, leaving the input untouched.
func ValidatePayload(reqs []FieldRequirement, payload Payload) (Payload, error) {
	verr := &ValidationError{}

	byName := make(map[string]FieldRequirement, len(reqs))
	for _, r := range reqs {
		byName[r.Name] = r
	}

	for name := range payload {
		if _, ok := byName[name]; !ok {
			verr.Unknown = append(verr.Unknown, name)
		}
	}

	resolved := make(Payload, len(reqs))
	for _, r := range reqs {
		value, present := payload[r.Name]
		if present && isEmptyValue(value) {
			present = false
		}

		if !present {
			if r.Required {
				verr.Missing = append(verr.Missing, r.Name)
			} else if r.Default != nil {
				resolved[r.Name] = r.Default
			}
			continue
		}

		if reason := checkKind(r, value); reason != "" {
			verr.invalid(r.Name, reason)
			continue
		}
		resolved[r.Name] = value
	}

	if !verr.empty() {
		return nil, verr
	}
	return resolved, nil
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// checkKind returns a refusal reason, or "" when value fits the requirement.
func checkKind(r FieldRequirement, value any) string {
	switch r.Kind {
	case KindText, KindLink:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("expected a string, got %T", value)
		}

	case KindNumber:
		switch v := value.(type) {
		case int, int32, int64, float32, float64:
		case string:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fmt.Sprintf("%q is not a number", v)
			}
		default:
			return fmt.Sprintf("expected a number, got %T", value)
		}

	case KindDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected a %s date string, got %T", dateLayout, value)
		}
		if _, err := time.Parse(dateLayout, s); err != nil {
			return fmt.Sprintf("%q is not a %s date", s, dateLayout)
		}

	case KindDateTime:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected an RFC 3339 timestamp, got %T", value)
		}
		if _, err := time.Parse(dateTimeLayout, s); err != nil {
			return fmt.Sprintf("%q is not an RFC 3339 timestamp", s)
		}

	case KindSelect:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected one of the options, got %T", value)
		}
		for _, opt := range r.Options {
			if s == opt {
				return ""
			}
		}
		return fmt.Sprintf("%q is not one of the allowed options", s)

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("expected a boolean, got %T", value)
		}
	}
	return ""
}
