package main

import (
	"equipment_lending/app"
	"equipment_lending/config"
	"equipment_lending/routes"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	application := app.MustNew()
	defer application.Close()

	routes.RegisterRoutes(application.Router, application)

	port := application.Config.Port
	application.Log.Info("listening", zap.String("port", port))
	if err := application.Router.Run(":" + port); err != nil {
		application.Log.Error("server stopped", zap.Error(err))
	}
}
