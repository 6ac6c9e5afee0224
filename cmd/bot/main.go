package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cyclone-bot/internal/bootstrap"
	"cyclone-bot/internal/config"
	"cyclone-bot/internal/server"
	"cyclone-bot/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()
	cfg.Validate()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Unable to build container: %v", err)
	}
	defer container.Logger.Sync()

	// 3. Wire Discord Handlers (before Open so no gateway event is missed)
	container.MessageHandler.Register()
	container.InteractionHandler.Register()
	container.CommandRouter.Register()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	if err := container.Scheduler.Start(); err != nil {
		log.Fatalf("Unable to start scheduler: %v", err)
	}

	// 5. Connect to Discord
	if err := container.Session.Open(); err != nil {
		log.Fatalf("Unable to open Discord session: %v", err)
	}
	log.Println("✅ Bot is connected to Discord")

	// 6. Run HTTP Server
	srv := server.New(cfg, container.Session, container.Logger)
	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	// 7. Wait for Shutdown Signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	container.Scheduler.Stop()
	if err := srv.Shutdown(); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := container.Session.Close(); err != nil {
		log.Printf("Discord close error: %v", err)
	}
	log.Println("Bye.")
}
