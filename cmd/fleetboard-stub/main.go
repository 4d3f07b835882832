package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/leetrental/fleetboard/cmd/fleetboard-stub/app"
)

func main() {
	app.NewApp().Run()
}
