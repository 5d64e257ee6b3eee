package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/velstore/stockpulse/internal/ingest"
)

func seedEvents(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	return loadEvents(c.Context, db, c.String("data-dir"))
}

// loadEvents loads whichever event fixture files exist in dataDir.
// Missing files are skipped, a partial fixture set is normal.
func loadEvents(ctx context.Context, db *sql.DB, dataDir string) error {
	loader := ingest.NewLoader(db)

	steps := []struct {
		file string
		load func(context.Context, string) error
	}{
		{"stock_events.csv", loader.LoadStockEvents},
		{"shipments.csv", loader.LoadShipments},
		{"sale_windows.csv", loader.LoadSaleWindows},
		{"probe_samples.csv", loader.LoadProbeSamples},
	}

	loaded := 0
	for _, step := range steps {
		path := filepath.Join(dataDir, step.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Printf("File not found, skipping: %s", path)
			continue
		}

		log.Printf("Loading event fixture: %s", path)
		if err := step.load(ctx, path); err != nil {
			return fmt.Errorf("error loading %s: %w", path, err)
		}
		loaded++
	}

	if loaded == 0 {
		log.Printf("No event fixture files found in %s", dataDir)
	}
	return nil
}
