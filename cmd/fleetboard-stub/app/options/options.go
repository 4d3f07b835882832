package options

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/leetrental/fleetboard/pkg/app"
	"github.com/leetrental/fleetboard/pkg/log"
	"github.com/leetrental/fleetboard/pkg/options"
)

type StubOptions struct {
	HttpOptions *options.HttpOptions `json:"http" mapstructure:"http"`
	Log         *log.Options         `json:"log" mapstructure:"log"`

	// SeedFile optionally points at a JSON array of vehicle records; when
	// empty the built-in demo fleet is loaded.
	SeedFile string `json:"seed-file" mapstructure:"seed-file"`
}

var _ app.CliOptions = (*StubOptions)(nil)

func NewStubOptions() *StubOptions {
	o := &StubOptions{
		HttpOptions: options.NewHttpOptions(),
		Log:         log.NewOptions(),
	}
	// Match the gateway's default record keeper endpoint.
	o.HttpOptions.Addr = "0.0.0.0:8090"
	return o
}

func (o *StubOptions) AddFlags(fs *pflag.FlagSet) {
	o.HttpOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
	fs.StringVar(&o.SeedFile, "seed-file", o.SeedFile, "JSON file of vehicle records to seed. Empty loads the demo fleet.")
}

func (o *StubOptions) Complete() error {
	return nil
}

func (o *StubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	if o.SeedFile != "" {
		if _, err := os.Stat(o.SeedFile); err != nil {
			errs = append(errs, fmt.Errorf("seed file: %w", err))
		}
	}
	return errors.Join(errs...)
}
