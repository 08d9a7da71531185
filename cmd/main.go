package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kerem-kaynak/hrportal/internal/config"
	"github.com/kerem-kaynak/hrportal/internal/http"
	"go.uber.org/zap"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	// Initialize context
	ctx, err := config.InitContext(settings)
	if err != nil {
		log.Fatalf("Failed to initialize context: %v", err)
	}

	defer func() {
		if err := ctx.Logger.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	tp, err := config.InitTracer(settings, ctx.Logger)
	if err != nil {
		ctx.Logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			ctx.Logger.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	// Ensure the database connection is closed when the application exits
	sqlDB, err := ctx.DB.DB()
	if err != nil {
		ctx.Logger.Fatal("Failed to get underlying SQL DB from GORM DB", zap.Error(err))
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			ctx.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if ctx.Redis != nil {
		defer ctx.Redis.Close()
	}

	service := http.NewHTTPService(ctx)

	ctx.Logger.Info("Starting server", zap.String("port", settings.Port), zap.String("environment", settings.Environment))
	if err := service.Engine().Run(":" + settings.Port); err != nil {
		ctx.Logger.Fatal("Failed to start the server", zap.Error(err))
	}
}
