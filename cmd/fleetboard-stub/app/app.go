package app

import (
	"github.com/leetrental/fleetboard/cmd/fleetboard-stub/app/options"
	"github.com/leetrental/fleetboard/internal/recordkeeper/memory"
	"github.com/leetrental/fleetboard/internal/recordkeeper/stub"
	"github.com/leetrental/fleetboard/pkg/app"
	"github.com/leetrental/fleetboard/pkg/log"
)

const (
	commandName = "fleetboard-stub"
	commandDesc = `An in-memory stand-in for the rental back office. It speaks the record
keeper wire protocol, applies the same transition policy as the real system,
and creates dependent documents (reservations, movements, agreements) so the
gateway can be developed and demoed without a back office.`
)

func NewApp() *app.App {
	opts := options.NewStubOptions()
	return app.NewApp(
		commandName,
		"Launch the in-memory record keeper stub",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.StubOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := app.SetupSignalContext()

		store := memory.NewStore()
		if opts.SeedFile != "" {
			if err := stub.SeedFromFile(store, opts.SeedFile); err != nil {
				return err
			}
		} else {
			stub.SeedDemoFleet(store)
		}

		return stub.New(opts.HttpOptions, store, log.Std()).Run(ctx)
	}
}
