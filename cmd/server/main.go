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

	"dockyard/internal/api"
	"dockyard/internal/api/middleware"
	"dockyard/internal/app/service"
	"dockyard/internal/common/security"
	"dockyard/internal/domain/repository"
	"dockyard/internal/platform/cache"
	"dockyard/internal/platform/cluster"
	"dockyard/internal/platform/config"
	"dockyard/internal/platform/database"
	"dockyard/internal/platform/engine"
	"dockyard/internal/platform/logging"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize Logging
	if err := logging.Init(); err != nil {
		log.Fatalf("Could not initialize logging: %v", err)
	}
	defer logging.Sync()

	// 3. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 4. Initialize Database
	database.Connect()
	defer database.Close()
	database.Migrate()
	fmt.Println("Database connected.")

	// 5. Initialize Redis (rate-limit counters)
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 6. Initialize engine and cluster clients
	dockerClient := engine.Connect()
	defer dockerClient.Close()
	clientset := cluster.Connect()

	// 7. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)

	// 8. Initialize Services
	authService := service.NewAuthService(userRepo)
	imageService := service.NewImageService(dockerClient)
	containerService := service.NewContainerService(dockerClient)
	volumeService := service.NewVolumeService(dockerClient)
	podService := service.NewPodService(clientset, config.AppConfig.KubeNamespace)

	// 9. Initialize Router & HTTP Server
	limiter := middleware.NewRateLimiter(cache.RDB)
	router := api.NewRouter(authService, imageService, containerService, volumeService, podService, userRepo, limiter)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // long-running builds stream their output
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
