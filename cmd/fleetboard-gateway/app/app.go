package app

import (
	"fmt"

	"github.com/leetrental/fleetboard/cmd/fleetboard-gateway/app/options"
	"github.com/leetrental/fleetboard/pkg/app"
	"github.com/leetrental/fleetboard/pkg/log"
)

const (
	commandName = "fleetboard-gateway"
	commandDesc = `The fleetboard gateway serves the vehicle lifecycle board: it mirrors the
rental back office's vehicle states, resolves which transitions are legal and
what data each one needs, and submits transition attempts exactly once. All
state changes are decided by the back office; the gateway never invents one.`
)

func NewApp() *app.App {
	opts := options.NewGatewayOptions()
	return app.NewApp(
		commandName,
		"Launch the vehicle lifecycle board gateway",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.GatewayOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := app.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		gateway, err := cfg.NewGateway()
		if err != nil {
			return fmt.Errorf("failed to create gateway: %w", err)
		}

		return gateway.Run(ctx)
	}
}
