// @title Accounting Academy API
// @version 1.0
// @description Backend server for the Accounting Academy exam and quiz platform.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"accounting_academy_backend/internal/app"
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/pkg/configwatcher"
	"accounting_academy_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if cfg.MigrateOnly {
		log.Println("Migration finished, exiting (migrate-only mode)")
		return
	}

	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(next interface{}) {
		if fresh, ok := next.(*config.Config); ok {
			application.ApplyConfig(fresh)
		}
	})

	application.Run()
}
