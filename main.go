package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ipitupAPI/handlers"
	"ipitupAPI/internal/outbox"
	"ipitupAPI/middleware"
	"ipitupAPI/services"
	"ipitupAPI/store"
)

var (
	dbPool             *pgxpool.Pool
	activityService    *services.ActivityService
	scoreService       *services.ScoreService
	badgeService       *services.BadgeService
	leaderboardService *services.LeaderboardService
	outboxProducer     *outbox.KafkaProducer
	outboxDispatcher   *outbox.Dispatcher
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	st := store.NewPostgresStore(dbPool)

	badgeService = services.NewBadgeService(st)
	activityService = services.NewActivityService(st, badgeService)
	scoreService = services.NewScoreService(st)

	homeCountry := os.Getenv("LOCAL_COUNTRY")
	if homeCountry == "" {
		homeCountry = "Belgium"
	}
	leaderboardLimit := 0
	if raw := os.Getenv("LEADERBOARD_LIMIT"); raw != "" {
		leaderboardLimit, err = strconv.Atoi(raw)
		if err != nil {
			log.Fatal("Invalid LEADERBOARD_LIMIT:", err)
		}
	}
	leaderboardService = services.NewLeaderboardService(st, homeCountry, leaderboardLimit)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		outboxProducer = outbox.NewKafkaProducer(strings.Split(brokers, ","))
		outboxDispatcher = outbox.NewDispatcher(dbPool, outboxProducer, 2*time.Second, 100)
		log.Println("Kafka outbox dispatcher configured")
	} else {
		log.Println("KAFKA_BROKERS not set, activity events stay in the outbox table")
	}

	middleware.InitPrometheus()
	services.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	activityHandler := handlers.NewActivityHandler(activityService, scoreService, badgeService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "ipitup-api"}`))
	}).Methods("GET")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// The leaderboard works without a login. With one, the following
	// scope becomes available.
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware)

	public.HandleFunc("/leaderboard/filter", leaderboardHandler.Query).Methods("GET")
	public.HandleFunc("/leaderboard/location/{locationId}", leaderboardHandler.GetEntriesByLocation).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/activities", activityHandler.RecordActivity).Methods("POST")
	protected.HandleFunc("/activities/user/{userId}", activityHandler.GetActivitiesByUser).Methods("GET")
	protected.HandleFunc("/activities/user/{userId}/score", activityHandler.GetUserTotalScore).Methods("GET")
	protected.HandleFunc("/users/{userId}/streak", activityHandler.GetDailyStreak).Methods("GET")
	protected.HandleFunc("/users/{userId}/streak/recompute", activityHandler.RecomputeDailyStreak).Methods("POST")
	protected.HandleFunc("/badges/user/{userId}", activityHandler.GetBadgesByUser).Methods("GET")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "7071"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	dispatcherCtx, dispatcherCancel := context.WithCancel(context.Background())
	defer dispatcherCancel()
	if outboxDispatcher != nil {
		go outboxDispatcher.Start(dispatcherCtx)
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if outboxDispatcher != nil {
		dispatcherCancel()
		outboxDispatcher.Wait()
		if err := outboxProducer.Close(); err != nil {
			log.Printf("Kafka producer close error: %v", err)
		}
	}

	log.Println("Server shutdown complete")
}
