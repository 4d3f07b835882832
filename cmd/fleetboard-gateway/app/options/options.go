package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/leetrental/fleetboard/internal/board"
	"github.com/leetrental/fleetboard/pkg/app"
	"github.com/leetrental/fleetboard/pkg/log"
	"github.com/leetrental/fleetboard/pkg/options"
)

type GatewayOptions struct {
	HttpOptions         *options.HttpOptions         `json:"http" mapstructure:"http"`
	RecordkeeperOptions *options.RecordkeeperOptions `json:"recordkeeper" mapstructure:"recordkeeper"`
	MqttOptions         *options.MqttOptions         `json:"mqtt" mapstructure:"mqtt"`
	Log                 *log.Options                 `json:"log" mapstructure:"log"`
}

var _ app.CliOptions = (*GatewayOptions)(nil)

func NewGatewayOptions() *GatewayOptions {
	return &GatewayOptions{
		HttpOptions:         options.NewHttpOptions(),
		RecordkeeperOptions: options.NewRecordkeeperOptions(),
		MqttOptions:         options.NewMqttOptions(),
		Log:                 log.NewOptions(),
	}
}

func (o *GatewayOptions) AddFlags(fs *pflag.FlagSet) {
	o.HttpOptions.AddFlags(fs)
	o.RecordkeeperOptions.AddFlags(fs)
	o.MqttOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
}

func (o *GatewayOptions) Complete() error {
	return nil
}

func (o *GatewayOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.RecordkeeperOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

func (o *GatewayOptions) Config() (*board.Config, error) {
	return &board.Config{
		HttpOptions:         o.HttpOptions,
		RecordkeeperOptions: o.RecordkeeperOptions,
		MqttOptions:         o.MqttOptions,
	}, nil
}
