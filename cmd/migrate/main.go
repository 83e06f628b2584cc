// Command migrate applies the embedded sessions and metrics schema migrations.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/snare/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "SNARE_DB_DSN"

var dbEnv = &database.Env{
	Host:     "SNARE_DB_HOST",
	Port:     "SNARE_DB_PORT",
	Name:     "SNARE_DB_NAME",
	User:     "SNARE_DB_USER",
	Password: "SNARE_DB_PASSWORD",
	SSLMode:  "SNARE_DB_SSL_MODE",
}

// resolveDSN prefers the flag, then SNARE_DB_DSN, then a URL assembled from
// the SNARE_DB_* variables with snare/snare as the fallback name and user.
func resolveDSN(flagged string) string {
	if flagged != "" {
		return flagged
	}
	if v := os.Getenv(envDSN); v != "" {
		return v
	}

	cfg := database.Config{Name: "snare", User: "snare", Password: "snare"}
	if err := cfg.Finalize(dbEnv); err != nil {
		log.Fatalf("invalid database environment: %v", err)
	}
	return cfg.URL()
}

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database connection string")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	*dsn = resolveDSN(*dsn)

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("failed to create migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, *dsn)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("failed to get version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("failed to force version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run up migrations: %v", err)
		}
		fmt.Println("migrations applied successfully")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run down migrations: %v", err)
		}
		fmt.Println("migrations reverted successfully")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run migrations: %v", err)
		}
		fmt.Printf("applied %d migration steps\n", *steps)
	default:
		fmt.Println("usage: migrate -dsn <connection-string> [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}
}
