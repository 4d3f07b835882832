package main

import (
	"github.com/leetrental/fleetboard/cmd/fleetboardctl/app"
)

func main() {
	app.NewCommand().Run()
}
