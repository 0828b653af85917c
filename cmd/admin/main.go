package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"cultgo/backend/internal/investigation"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/photo"
	"cultgo/backend/internal/ritual"
	"cultgo/backend/internal/storage"
	"cultgo/backend/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: seed <dir> | set-score <user_id> <score> | new-event | derive-cases <victim_id>")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "seed":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin seed <catalog_dir>")
			os.Exit(1)
		}
		if err := seedCatalogs(db, os.Args[2]); err != nil {
			log.Fatalf("Error seeding catalogs: %v", err)
		}
		fmt.Println("Catalogs seeded.")

	case "set-score":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin set-score <user_id> <score>")
			os.Exit(1)
		}
		userID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Invalid user ID. Please provide an integer.")
			os.Exit(1)
		}
		score, err := strconv.Atoi(os.Args[3])
		if err != nil {
			fmt.Println("Invalid score. Please provide an integer.")
			os.Exit(1)
		}
		storageSvc := storage.NewStorageService(db, newRedis())
		if err := storageSvc.SetScore(userID, score); err != nil {
			log.Fatalf("Error setting score: %v", err)
		}
		fmt.Printf("Score %d set for user %d.\n", score, userID)

	case "new-event":
		storageSvc := storage.NewStorageService(db, newRedis())
		generator := ritual.NewGenerator(storageSvc, newDeriver(storageSvc))
		event, err := generator.Generate()
		if err != nil {
			log.Fatalf("Error generating event: %v", err)
		}
		fmt.Printf("New event: victim %s (%s), weapon %s, ritual %s, place %s\n",
			event.VictimName, event.VictimID, event.WeaponName, event.Ritual, event.Place)

	case "derive-cases":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin derive-cases <victim_id>")
			os.Exit(1)
		}
		storageSvc := storage.NewStorageService(db, newRedis())
		n, err := newDeriver(storageSvc).DeriveCasesForVictim(os.Args[2])
		if err != nil {
			log.Fatalf("Error deriving cases: %v", err)
		}
		fmt.Printf("%d case(s) derived for victim %s.\n", n, os.Args[2])

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

// newDeriver builds a case deriver for the CLI. Evidence photos live on
// Telegram, so even the offline commands need the bot token to fetch them.
func newDeriver(storageSvc *storage.Service) *investigation.Deriver {
	bot, err := tgbotapi.NewBotAPI(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if err != nil {
		log.Fatalf("failed to authorize bot for photo fetching: %v", err)
	}
	fetcher := &telegram.FileFetcher{BotAPI: bot}
	obscurer := &photo.ToolObscurer{Command: os.Getenv("OBSCURE_TOOL")}
	return investigation.NewDeriver(storageSvc, fetcher, obscurer, consolePublisher{})
}

func newRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	return rdb
}

// consolePublisher prints derived cases instead of posting to Telegram.
type consolePublisher struct{}

func (consolePublisher) PostCase(c *models.Case) error {
	fmt.Printf("case %s derived (victim %s, report %d)\n", c.CaseCode, c.VictimID, c.ReportIndex)
	return nil
}

func (consolePublisher) PostOperatorWarning(text string) error {
	fmt.Println("WARNING:", text)
	return nil
}

// seedCatalogs loads the five catalog files from a directory and upserts
// them. Existing rows are updated in place, so re-seeding is safe.
func seedCatalogs(db *gorm.DB, dir string) error {
	load := func(name string, out any) error {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		return nil
	}

	var victims []models.Victim
	if err := load("victims.json", &victims); err != nil {
		return err
	}
	var weapons []models.Weapon
	if err := load("weapons.json", &weapons); err != nil {
		return err
	}
	var rituals []models.Ritual
	if err := load("rituals.json", &rituals); err != nil {
		return err
	}
	var places []models.Place
	if err := load("places.json", &places); err != nil {
		return err
	}
	var identities []models.SecretIdentity
	if err := load("identities.json", &identities); err != nil {
		return err
	}

	upsert := clause.OnConflict{UpdateAll: true}
	for _, batch := range []any{&victims, &weapons, &rituals, &places, &identities} {
		if err := db.Clauses(upsert).Create(batch).Error; err != nil {
			return err
		}
	}
	return nil
}
