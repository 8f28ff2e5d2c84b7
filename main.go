package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"casaflow/pm/internal/api"
	"casaflow/pm/internal/cache"
	"casaflow/pm/internal/calendar"
	"casaflow/pm/internal/config"
	"casaflow/pm/internal/db"
	"casaflow/pm/internal/journey"
	"casaflow/pm/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background worker), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	ctx, cancelIdx := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctx, mongoDb); err != nil {
		cancelIdx()
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancelIdx()

	// Initialize Cache (Redis) - backs the journey task queue
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	var wg sync.WaitGroup
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Background worker: drains the journey queue into the append-only log.
	var taskServer *asynq.Server
	if cfg.RunMode == "bg" || cfg.RunMode == "all" {
		processor := tasks.NewTaskProcessor(cfg, mongoDb)
		srv, mux := tasks.NewServer(cfg, processor)
		taskServer = srv

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(mux); err != nil {
				log.Printf("Task server stopped: %v", err)
			}
		}()
	}

	// API server
	var apiServer *http.Server
	if cfg.RunMode == "api" || cfg.RunMode == "all" {
		// Calendar integration is optional; without credentials the pipeline
		// schedules video visits with no meeting link.
		var calClient calendar.Client
		if cfg.GoogleCredentialsJSON != "" {
			calClient, err = calendar.NewGoogleClient(context.Background(), cfg.GoogleCredentialsJSON, cfg.CalendarOrganizer)
			if err != nil {
				log.Printf("Calendar integration disabled: %v", err)
				calClient = nil
			}
		}

		taskClient := tasks.NewClient(redisClient)
		defer taskClient.Close()
		recorder := journey.NewAsynqRecorder(taskClient)

		router := api.SetupRouter(cfg, mongoDb, calClient, recorder)
		apiServer = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("API server listening on :%s", cfg.ApiPort)
			if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("API server stopped: %v", err)
			}
		}()
	}

	// Block until a termination signal arrives, then drain both servers.
	<-quit
	log.Println("Shutting down...")

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		cancel()
	}
	if taskServer != nil {
		taskServer.Shutdown()
	}

	wg.Wait()
	log.Println("Shutdown complete.")
}
