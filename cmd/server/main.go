package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/direct-message-service/internal/auth"
	"github.com/iliyamo/direct-message-service/internal/config"
	"github.com/iliyamo/direct-message-service/internal/database"
	"github.com/iliyamo/direct-message-service/internal/handler"
	"github.com/iliyamo/direct-message-service/internal/queue"
	"github.com/iliyamo/direct-message-service/internal/repository"
	"github.com/iliyamo/direct-message-service/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the vars
	cfg := config.Load()

	users, messages := buildStores(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.SeedAdmin(ctx, users, cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.Fatal(err)
	}

	// Verify deleted users cannot keep using unexpired tokens, unless the
	// purely stateless behaviour was explicitly requested.
	var subjectCheck repository.UserExister
	if cfg.VerifySubject {
		subjectCheck = users
	}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTLMin, subjectCheck)
	policy := auth.NewPolicy(cfg.AdminUsername)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	go func() {
		if err := queue.StartMessageConsumer(); err != nil {
			log.Printf("message consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e,
		handler.NewAuthHandler(cfg, users, tokens, policy),
		handler.NewMessageHandler(users, messages, policy),
		tokens, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, storage=%s)", addr, cfg.Env, cfg.StorageBackend)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// buildStores wires the store implementations selected by STORAGE_BACKEND.
// The CRUD surface is identical across all three variants.
func buildStores(cfg config.Config) (repository.UserStore, repository.MessageStore) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		users := repository.NewMemoryUserStore()
		return users, repository.NewMemoryMessageStore(users)

	case config.StorageMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		users := repository.NewUserRepo(db)
		return users, repository.NewMessageRepo(db, users)

	case config.StorageMySQLMongo:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		users := repository.NewUserRepo(db)

		client, err := database.OpenMongo(cfg.MongoURI)
		if err != nil {
			log.Fatal(err)
		}
		msgs := repository.NewMongoMessageRepo(
			client.Database(cfg.MongoDB).Collection("messages"), users)
		if err := msgs.EnsureIndexes(ctx); err != nil {
			log.Fatal(err)
		}
		return users, msgs

	default:
		log.Fatalf("unknown storage backend: %q", cfg.StorageBackend)
		return nil, nil
	}
}
