package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cultgo/backend/internal/api/handler"
	"cultgo/backend/internal/gamehub"
	"cultgo/backend/internal/investigation"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/photo"
	"cultgo/backend/internal/ritual"
	"cultgo/backend/internal/roster"
	"cultgo/backend/internal/scoring"
	"cultgo/backend/internal/storage"
	"cultgo/backend/internal/submission"
	"cultgo/backend/internal/telegram"
	"cultgo/backend/internal/weapons"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=user password=password dbname=cultgodb port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Player{},
		&models.SecretIdentity{},
		&models.Victim{},
		&models.Weapon{},
		&models.Ritual{},
		&models.Place{},
		&models.UsedVictim{},
		&models.Event{},
		&models.WeaponClaim{},
		&models.Report{},
		&models.PendingSubmission{},
		&models.Case{},
		&models.Attempt{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func envChatID(name string) int64 {
	raw := os.Getenv(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("%s must be a chat id, got %q", name, raw)
	}
	return id
}

func envAdminIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(os.Getenv("ADMIN_IDS"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Fatalf("ADMIN_IDS contains a non-numeric entry: %q", part)
		}
		ids = append(ids, id)
	}
	return ids
}

func main() {
	log.Println("Starting CultGo Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	db, rdb := setupDependencies()
	s := storage.NewStorageService(db, rdb)

	rosterSvc := roster.NewService(s)
	resolver := weapons.NewResolver(s)
	pipeline := submission.NewPipeline(s)
	invSvc := investigation.NewService(s)
	scoringSvc := scoring.NewService(s)

	obscurer := &photo.ToolObscurer{Command: os.Getenv("OBSCURE_TOOL")}
	decoder := &photo.ToolQRDecoder{Command: os.Getenv("QR_TOOL")}

	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set!")
	}
	botService, err := telegram.NewBotService(botToken, telegram.Deps{
		Storage:       s,
		Roster:        rosterSvc,
		Resolver:      resolver,
		Pipeline:      pipeline,
		Investigation: invSvc,
		Scoring:       scoringSvc,
		Decoder:       decoder,

		Lang:             os.Getenv("GAME_LANG"),
		CultChannelID:    envChatID("CULT_CHANNEL_ID"),
		BureauChannelID:  envChatID("BUREAU_CHANNEL_ID"),
		ModerationChatID: envChatID("MODERATION_CHAT_ID"),
		OperatorChatID:   envChatID("OPERATOR_CHAT_ID"),
		AdminIDs:         envAdminIDs(),
	})
	if err != nil {
		log.Fatalf("Failed to start the Telegram bot: %v", err)
	}

	// The event cycle posts through the bot's channels, so it is wired
	// after the bot exists.
	fetcher := &telegram.FileFetcher{BotAPI: botService.BotAPI}
	deriver := investigation.NewDeriver(s, fetcher, obscurer, botService.Channels)
	generator := ritual.NewGenerator(s, deriver)
	botService.Cycle = ritual.NewCycle(generator, botService.Channels, s)

	hub := gamehub.NewHub()
	hub.StartPubSubListener(s.SubscribeUpdates())

	go hub.Run()
	go botService.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, s, scoringSvc, os.Getenv("JWT_SECRET"), os.Getenv("ADMIN_KEY"))
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           ":8080",
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
