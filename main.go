package main

import (
	"context"
	"log"

	"goposthoc/adapters/postgres"
	"goposthoc/internal/config"
	"goposthoc/internal/errors"
	"goposthoc/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase opens the optional PostgreSQL run store. An empty
// DATABASE_URL disables persistence.
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, nil
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}

func main() {
	// Load .env file if present (ignore errors in production)
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}

	var runs *postgres.RunRepository
	if db != nil {
		runs = postgres.NewRunRepository(db)
		if err := runs.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("schema error: %v", err)
		}
		log.Printf("run persistence enabled")
	} else {
		log.Printf("DATABASE_URL not set; run persistence disabled")
	}

	server := ui.NewServer(appConfig, runs)
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
