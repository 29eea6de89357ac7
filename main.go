package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

var (
	ledger      *Ledger
	chainClient ChainClient
)

func main() {
	seedCmd := flag.Bool("seed-demo", false, "Seed demo goals, transactions and challenges (idempotent)")
	flag.Parse()

	cfg := loadConfig()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageBackend, err)
	}
	defer closeStore()

	ledger = newLedger(store)

	if *seedCmd {
		if err := seedSampleData(context.Background(), ledger); err != nil {
			log.Fatalf("Seeding demo data failed: %v", err)
		}
		log.Println("Demo data seeded")
		return
	}

	// Redis backs the response cache even when it is not the storage
	// backend
	if cfg.StorageBackend != "redis" && cfg.RedisURL != "" {
		if err := initRedis(cfg.RedisURL); err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
			log.Println("Continuing without response cache...")
			redisClient = nil
		}
	}

	if cfg.RPCURL != "" && cfg.ContractAddress != "" {
		chainClient = newRPCChainClient(cfg.RPCURL, cfg.ContractAddress)
	} else {
		log.Println("RPC_URL or CONTRACT_ADDRESS not set, chain features disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if chainClient != nil {
		poller := newPoller(chainClient, ledger, cfg.PollInterval)
		if cfg.WatchAddress != "" && cfg.WatchGoalID != "" {
			poller.Watch(cfg.WatchAddress, cfg.WatchGoalID)
		}
		go poller.Start(ctx)
	}

	// Reminder generation runs on a timer; the engine itself only runs
	// when invoked
	go func() {
		ticker := time.NewTicker(cfg.ReminderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if created, err := ledger.GenerateReminders(ctx); err != nil {
					log.Printf("Error generating reminders: %v", err)
				} else if len(created) > 0 {
					log.Printf("Generated %d reminders", len(created))
				}
			}
		}
	}()

	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	registerRoutes(r)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// registerRoutes wires every endpoint onto the router. Shared with the
// test harness.
func registerRoutes(r *gin.Engine) {
	r.GET("/api/goals", getGoals)
	r.POST("/api/goals", createGoal)
	r.GET("/api/goals/:id", getGoal)
	r.PUT("/api/goals/:id", updateGoal)
	r.DELETE("/api/goals/:id", deleteGoal)
	r.GET("/api/goals/:id/progress", getGoalProgress)
	r.GET("/api/goals/:id/transactions", getGoalTransactions)

	r.GET("/api/transactions", getTransactions)
	r.POST("/api/transactions", createTransaction)
	r.PUT("/api/transactions/:id", updateTransaction)
	r.DELETE("/api/transactions/:id", deleteTransaction)

	r.GET("/api/challenges", getChallenges)
	r.POST("/api/challenges", createChallenge)
	r.GET("/api/challenges/:id", getChallenge)
	r.PUT("/api/challenges/:id", updateChallenge)
	r.DELETE("/api/challenges/:id", deleteChallenge)

	r.GET("/api/reminders", getReminders)
	r.GET("/api/reminders/pending", getPendingReminders)
	r.POST("/api/reminders/generate", generateReminders)
	r.PUT("/api/reminders/:id/acknowledge", acknowledgeReminder)

	r.POST("/api/calculator/roi", calculateROIHandler)

	r.GET("/api/balance/:address", validateAddress(), cacheResponse(60*time.Second), getBalance)
	r.GET("/api/events/:address", validateAddress(), cacheResponse(60*time.Second), getEvents)
	r.GET("/api/health", healthCheck)
}

// openStore builds the configured storage backend. The returned cleanup
// closes whatever the backend holds open.
func openStore(cfg config) (Store, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case "memory":
		return newMemoryStore(), noop, nil

	case "file":
		store, err := newFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case "redis":
		if err := initRedis(cfg.RedisURL); err != nil {
			return nil, nil, err
		}
		return newRedisStore(redisClient), func() { redisClient.Close() }, nil

	case "postgres":
		connStr := cfg.connString()
		if err := migratePostgres(connStr); err != nil {
			return nil, nil, err
		}
		store, err := newPostgresStore(context.Background(), connStr)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	return nil, nil, invalidf("unknown storage backend %q", cfg.StorageBackend)
}

// migratePostgres connects with retries and applies pending migrations
func migratePostgres(connStr string) error {
	var (
		db  *sql.DB
		err error
	)

	maxRetries := 30
	retryInterval := time.Second * 2

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", connStr)
		if err != nil {
			log.Printf("Attempt %d: Error opening database: %v", i+1, err)
			time.Sleep(retryInterval)
			continue
		}

		if err = db.Ping(); err != nil {
			log.Printf("Attempt %d: Error connecting to database: %v", i+1, err)
			db.Close()
			time.Sleep(retryInterval)
			continue
		}

		log.Println("Successfully connected to database")
		break
	}
	if err != nil {
		return err
	}
	defer db.Close()

	migrationsPath := filepath.Join(".", "db", "migrations")
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		log.Printf("Migrations directory not found at %s, skipping migrations", migrationsPath)
		return nil
	}

	log.Println("Running database migrations...")
	if err := runMigrations(db, migrationsPath); err != nil {
		return err
	}

	if version, dirty, err := getMigrationVersion(db, migrationsPath); err == nil {
		if dirty {
			log.Printf("Current migration version: %d (DIRTY - migration failed)", version)
		} else {
			log.Printf("Current migration version: %d", version)
		}
	}
	log.Println("Database migrations completed successfully")
	return nil
}
