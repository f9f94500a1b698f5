package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"guest-assistant-be/internal/bootstrap"
	"guest-assistant-be/internal/config"
	"guest-assistant-be/internal/server"
	"guest-assistant-be/internal/tracer"
	"guest-assistant-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Ingest Consumer...")
		if err := container.IngestService.Consume(context.Background()); err != nil {
			log.Printf("Background Ingest Consumer Error: %v", err)
		}
	}()

	if container.ArchiverService != nil {
		go func() {
			log.Println("Background: Starting Turn Archiver...")
			if err := container.ArchiverService.Start(); err != nil {
				log.Printf("Background Turn Archiver Error: %v", err)
			}
		}()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := srv.GetApp().Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if container.NatsPublisher != nil {
		container.NatsPublisher.Close()
	}
	if container.NatsSubscriber != nil {
		container.NatsSubscriber.Close()
	}
	// Sync can fail on stdout; the file core is what matters here.
	_ = container.Logger.Sync()
}
