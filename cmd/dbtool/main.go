package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"fleet-dashboard-service/internal/adapters/repositories"
	"fleet-dashboard-service/internal/platform/db"
)

// dbtool initializes the mirror schema and optionally seeds pickup points
// from a JSON file, for local runs without a live backend.
func main() {
	seedPath := flag.String("seed", "", "path to a pickup_points seed JSON file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	if err := repositories.InitSchema(sqlDB); err != nil {
		log.Fatal(err)
	}
	log.Println("schema initialized")

	if *seedPath != "" {
		if err := repositories.SeedFromJSON(sqlDB, *seedPath); err != nil {
			log.Fatal(err)
		}
		log.Printf("seeded pickup points from %s", *seedPath)
	}
}
