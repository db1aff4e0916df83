package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/text2sql/text2sql/internal/config"
	"github.com/text2sql/text2sql/internal/database"
	"github.com/text2sql/text2sql/internal/sampledb"
)

func main() {
	direction := flag.String("direction", "up", "seed direction: up|down|status")
	steps := flag.Int("steps", 0, "number of script versions; 0 means all for up, 1 for down")
	databaseURL := flag.String("database-url", "", "database URL, overrides TEXT2SQL_DATABASE_URL")
	flag.Parse()

	cfg, err := config.LoadFromEnv("text2sql-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *databaseURL != "" {
		cfg.Database.URL = *databaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, database.DBConfig{URL: cfg.Database.URL, MaxOpenConns: 1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "database open error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	seeder := sampledb.NewSeeder()
	switch *direction {
	case "up":
		applied, err := seeder.Up(ctx, db.DB, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed up failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("applied %d seed script(s) to %s database\n", applied, db.Dialect)
	case "down":
		reverted, err := seeder.Down(ctx, db.DB, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed down failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rolled back %d seed script(s)\n", reverted)
	case "status":
		versions, err := seeder.Applied(ctx, db.DB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed status failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("applied versions: %v\n", versions)
	default:
		fmt.Fprintf(os.Stderr, "invalid direction: %s\n", *direction)
		os.Exit(1)
	}
}
