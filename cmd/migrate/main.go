package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/better-wallet/linewallet/internal/storage"
	"github.com/better-wallet/linewallet/migrations"
)

func main() {
	var (
		dsn       = flag.String("dsn", os.Getenv("STORE_POSTGRES_DSN"), "PostgreSQL connection string")
		direction = flag.String("direction", "up", "Migration direction: up or down")
		steps     = flag.Int("steps", 0, "Number of migrations to run (0 = all)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("STORE_POSTGRES_DSN is required")
	}
	if *direction != "up" && *direction != "down" {
		log.Fatalf("direction must be 'up' or 'down', got: %s", *direction)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, *dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	migrator := storage.NewMigrator(pool, migrations.FS)

	var done []string
	if *direction == "up" {
		done, err = migrator.Up(ctx, *steps)
	} else {
		done, err = migrator.Down(ctx, *steps)
	}
	for _, version := range done {
		fmt.Printf("Applied migration: %s (%s)\n", version, *direction)
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if len(done) == 0 {
		fmt.Println("No migrations to apply")
	} else {
		fmt.Printf("Applied %d migration(s)\n", len(done))
	}
}
