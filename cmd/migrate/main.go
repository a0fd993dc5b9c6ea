package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/you/paywallsvc/internal/infrastructure/database"
	"github.com/you/paywallsvc/internal/infrastructure/repositories"
)

// Migration and local-seed utility. Applies the schema and optionally seeds
// a demo content row for manual checkout testing.
func main() {
	seed := flag.Bool("seed", false, "seed a demo content item after migrating")
	flag.Parse()

	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=paywall password=paywall dbname=paywall port=5432 sslmode=disable"
	}

	db, err := database.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("✓ Database connection successful")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}
	fmt.Println("✓ AutoMigrate completed successfully")

	if *seed {
		content := &repositories.DBContent{
			ID:         uuid.NewString(),
			CreatorID:  uuid.NewString(),
			Title:      "Demo clip",
			PriceCents: 999,
			Currency:   "USD",
			ObjectKey:  "demo/clip.mp4",
			Published:  true,
		}
		if err := db.Create(content).Error; err != nil {
			log.Fatalf("Failed to seed content: %v", err)
		}
		fmt.Printf("✓ Seeded content %s (price 9.99 USD)\n", content.ID)
	}
}
