package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/velstore/stockpulse/internal/ingest"
)

type ctxKey int

const dbKey ctxKey = 0

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFromContext(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not found in context")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load reference data and event fixtures into the metrics database",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:  "master",
				Usage: "Load reference data (products, locations, shelf lives, signals)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing reference data CSVs",
						Value:   "./data/seeds/master",
						EnvVars: []string{"SEED_MASTER_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedMaster,
			},
			{
				Name:  "events",
				Usage: "Load event fixtures (stock events, shipments, sale windows, probe samples)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing event fixture CSVs",
						Value:   "./data/seeds/events",
						EnvVars: []string{"SEED_EVENTS_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedEvents,
			},
			{
				Name:  "all",
				Usage: "Load reference data, then event fixtures",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "master-dir",
						Usage:   "Directory containing reference data CSVs",
						Value:   "./data/seeds/master",
						EnvVars: []string{"SEED_MASTER_DIR"},
					},
					&cli.StringFlag{
						Name:    "events-dir",
						Usage:   "Directory containing event fixture CSVs",
						Value:   "./data/seeds/events",
						EnvVars: []string{"SEED_EVENTS_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					db, err := dbFromContext(c)
					if err != nil {
						return err
					}
					if err := loadMaster(c.Context, db, c.String("master-dir")); err != nil {
						return fmt.Errorf("error loading reference data: %w", err)
					}
					if err := loadEvents(c.Context, db, c.String("events-dir")); err != nil {
						return fmt.Errorf("error loading event fixtures: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func seedMaster(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	return loadMaster(c.Context, db, c.String("data-dir"))
}

// loadMaster loads the four reference files. All of them are required:
// event fixtures resolve against them.
func loadMaster(ctx context.Context, db *sql.DB, dataDir string) error {
	loader := ingest.NewLoader(db)

	log.Printf("Loading reference data from %s", dataDir)

	if err := loader.LoadProducts(ctx, filepath.Join(dataDir, "products.csv")); err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if err := loader.LoadLocations(ctx, filepath.Join(dataDir, "locations.csv")); err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}
	if err := loader.LoadShelfLives(ctx, filepath.Join(dataDir, "shelf_lives.csv")); err != nil {
		return fmt.Errorf("failed to load shelf lives: %w", err)
	}
	if err := loader.LoadProductSignals(ctx, filepath.Join(dataDir, "product_signals.csv")); err != nil {
		return fmt.Errorf("failed to load product signals: %w", err)
	}

	log.Println("Reference data loaded successfully")
	return nil
}
