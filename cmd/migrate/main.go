package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"openbook-server/config"
	"openbook-server/pkg/database"
)

const usage = `
openbook-server - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Run GORM auto-migrations
  status      Show database connection status
  seed-dev    Seed with development/test data
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	case "seed-dev":
		runSeedDevelopment()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("Running migrations...")
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func showStatus() {
	log.Println("Checking database status...")
	if err := database.HealthCheck(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	tables := []string{"users", "friendships", "connection_requests", "conversations", "messages", "notifications"}
	for _, table := range tables {
		if database.DB.Migrator().HasTable(table) {
			var count int64
			database.DB.Table(table).Count(&count)
			log.Printf("Table %-20s exists (%d rows)", table, count)
		} else {
			log.Printf("Table %-20s does not exist", table)
		}
	}
}

func runSeedDevelopment() {
	log.Println("Seeding database (development mode)...")
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	cfg := database.DefaultSeedConfig()
	cfg.TestUserCount = 8
	if err := database.Seed(database.DB, cfg); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Development seeding completed")
}
