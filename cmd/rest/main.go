package main

import (
	"context"
	"log"

	"linkchat-be/internal/bootstrap"
	"linkchat-be/internal/config"
	"linkchat-be/internal/server"
	"linkchat-be/internal/tracer"
	"linkchat-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (only needed by the postgres backend)
	var gormDB *gorm.DB
	if cfg.Storage.Backend == "postgres" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	if err := container.NotifierService.Start(context.Background()); err != nil {
		log.Panicf("Unable to start mail notifier: %v", err)
	}

	// 5. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
