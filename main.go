package main

import (
	"uascope/internal/api"
	"uascope/internal/controller"
	"uascope/internal/ui"
)

func main() {
	c := controller.New()
	var apiStatus string

	// Inject the API server starter function into the controller
	// to break the import cycle.
	c.SetApiStarter(api.StartServer)

	ui := ui.NewUI(c, &apiStatus)

	c.SetApiStatus(&apiStatus)
	c.UpdateApiServerState(ui.GetConfig())

	ui.Run()
}
