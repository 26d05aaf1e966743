package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paybridge/internal/app"
	"paybridge/internal/config"
	"paybridge/internal/db"
	"paybridge/internal/router"
)

func main() {
	log.Println("🚀 Starting paybridge server...")

	if err := config.LoadConfig(""); err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db.InitDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.InitializeContainer(ctx)
	cancel()
	if err != nil {
		log.Fatalf("❌ Failed to initialize services: %v", err)
	}

	r := router.SetupRouter(container)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Printf("🌐 Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Server shutdown error: %v", err)
	}

	container.Cleanup()
	log.Println("👋 Server stopped")
}
