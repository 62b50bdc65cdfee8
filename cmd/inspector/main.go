package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"riceinspector/internal/app"
	"riceinspector/internal/config"
	"riceinspector/internal/logger"
)

// HighGUI windows must stay on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.NewLogger(cfg)
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize: %v", err)
		appLogger.Close()
		log.Fatalf("Failed to initialize: %v", err)
	}

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		appLogger.Error("Failed to release resources: %v", err)
	}
	if runErr != nil {
		appLogger.Error("Inspection failed: %v", runErr)
		appLogger.Close()
		log.Fatalf("Inspection failed: %v", runErr)
	}
	appLogger.Info("Shutdown complete")
}
