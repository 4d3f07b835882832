package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RecordkeeperOptions)(nil)

// RecordkeeperOptions configures the HTTP client for the system of record.
type RecordkeeperOptions struct {
	// Endpoint is the base URL of the record keeper API.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// Token is an optional bearer token sent with every request.
	Token string `json:"token" mapstructure:"token"`

	// Timeout bounds a single attempt-transition or list call.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewRecordkeeperOptions creates a RecordkeeperOptions object with default
// parameters.
func NewRecordkeeperOptions() *RecordkeeperOptions {
	return &RecordkeeperOptions{
		Endpoint: "http://127.0.0.1:8090",
		Timeout:  15 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *RecordkeeperOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	u, err := url.Parse(o.Endpoint)
	if err != nil {
		errors = append(errors, fmt.Errorf("invalid record keeper endpoint: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Errorf("record keeper endpoint must be http(s), got %q", o.Endpoint))
	}

	if o.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("record keeper timeout must be positive, got %s", o.Timeout))
	}

	return errors
}

// AddFlags adds flags for the record keeper client to the specified FlagSet.
func (o *RecordkeeperOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "recordkeeper.endpoint", o.Endpoint, "Base URL of the system of record API.")
	fs.StringVar(&o.Token, "recordkeeper.token", o.Token, "Bearer token for the system of record API.")
	fs.DurationVar(&o.Timeout, "recordkeeper.timeout", o.Timeout, "Timeout for a single system of record call.")
}
