// Migration runner using goose (github.com/pressly/goose/v3). Up/down
// migrations live together in db/migrations with -- +goose annotations.
package main

import (
	"context"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/stencilmail/stencil-api/pkg/config"
	"github.com/stencilmail/stencil-api/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB, os.DirFS("db/migrations"))
	if err != nil {
		log.Fatalf("failed to create migration provider: %v", err)
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}
	for _, r := range results {
		if r.Error != nil {
			log.Fatalf("migration %d (%s) failed: %v", r.Source.Version, r.Source.Path, r.Error)
		}
		log.Printf("applied migration %d (%s) in %s", r.Source.Version, r.Source.Path, r.Duration)
	}
	if len(results) == 0 {
		log.Print("all migrations already applied")
	}
}
