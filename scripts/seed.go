package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Seeds the catalog tables: official posts, post templates and credit
// packages. Safe to re-run, existing rows are skipped by the ON CONFLICT
// clauses.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Build connection string
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	// Connect to database
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	seedSQL := `
		INSERT INTO official_posts (platform, title, content, credits_reward, active, created_at, updated_at)
		VALUES
			('facebook', 'Guest guides made simple', 'We build digital welcome books our guests love!', 30, true, NOW(), NOW()),
			('instagram', 'Welcome book story', 'Check out the digital guide waiting for our guests.', 30, true, NOW(), NOW()),
			('linkedin', 'Hospitality toolkit', 'How we streamlined guest communication with digital guides.', 40, true, NOW(), NOW())
		ON CONFLICT DO NOTHING;

		INSERT INTO post_templates (platform, post_type, content, active, created_at, updated_at)
		VALUES
			('facebook', 'feed', 'Tell your guests what makes your place special...', true, NOW(), NOW()),
			('instagram', 'story', 'Show the guide your guests see on arrival...', true, NOW(), NOW())
		ON CONFLICT DO NOTHING;

		INSERT INTO credit_packages (name, credits, price_usd, active, created_at, updated_at)
		VALUES
			('Starter', 100, 9.00, true, NOW(), NOW()),
			('Growth', 365, 29.00, true, NOW(), NOW()),
			('Pro', 1000, 69.00, true, NOW(), NOW())
		ON CONFLICT DO NOTHING;
	`

	log.Println("Seeding catalog tables...")
	if _, err := db.Exec(seedSQL); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	log.Println("Catalog seeded successfully")
}
