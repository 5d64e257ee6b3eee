package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/pkg/logger"
)

// Loader reads fixture CSVs into postgres. Every load runs in one
// transaction and upserts on the natural key, so re-seeding a file is
// idempotent. Reference rows are matched by code or name; an unknown
// reference in an event file fails the load instead of inventing rows.
type Loader struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db, log: logger.Component("ingest")}
}

type csvRow struct {
	cols   map[string]int
	record []string
}

func (r csvRow) get(name string) string {
	return strings.TrimSpace(r.record[r.cols[name]])
}

// forEachRow streams the CSV at path through fn. The header row names
// the columns; required columns must all be present.
func forEachRow(path string, required []string, fn func(row csvRow) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%s: failed to read header: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: failed to read record: %w", path, err)
		}
		line++

		if err := fn(csvRow{cols: cols, record: record}); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}

	return nil
}

// keyIDMap loads the id for every row of a reference table, keyed by
// the named column.
func keyIDMap(ctx context.Context, tx *sql.Tx, table, keyColumn string) (map[string]int64, error) {
	query := fmt.Sprintf("SELECT %s, id FROM %s", keyColumn, table)
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s keys: %w", table, err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			id  int64
		)
		if err := rows.Scan(&key, &id); err != nil {
			return nil, fmt.Errorf("failed to scan %s keys: %w", table, err)
		}
		result[key] = id
	}

	return result, rows.Err()
}

func parseNullableFloat(value string) (sql.NullFloat64, error) {
	if value == "" {
		return sql.NullFloat64{}, nil
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("invalid float value %q: %w", value, err)
	}

	return sql.NullFloat64{Float64: num, Valid: true}, nil
}

// LoadProducts upserts products keyed by code. Expected columns:
// code, name, dimension_type, unit_value, unit_code.
func (l *Loader) LoadProducts(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (code, name, dimension_type, unit_value, unit_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			dimension_type = EXCLUDED.dimension_type,
			unit_value = EXCLUDED.unit_value,
			unit_code = EXCLUDED.unit_code
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare products upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"code", "name", "dimension_type", "unit_value", "unit_code"}, func(row csvRow) error {
		_, err := stmt.ExecContext(ctx,
			row.get("code"), row.get("name"), row.get("dimension_type"),
			row.get("unit_value"), row.get("unit_code"),
		)
		if err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("products loaded")
	return nil
}

// LoadLocations upserts locations keyed by name. Expected columns:
// name, tier, active, internal, sellable.
func (l *Loader) LoadLocations(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO locations (name, tier, active, internal, sellable)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			tier = EXCLUDED.tier,
			active = EXCLUDED.active,
			internal = EXCLUDED.internal,
			sellable = EXCLUDED.sellable
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare locations upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"name", "tier", "active", "internal", "sellable"}, func(row csvRow) error {
		tier, ok := domain.ParseTier(row.get("tier"))
		if !ok {
			return fmt.Errorf("unknown tier %q", row.get("tier"))
		}

		active, err := strconv.ParseBool(row.get("active"))
		if err != nil {
			return fmt.Errorf("invalid active flag: %w", err)
		}
		internal, err := strconv.ParseBool(row.get("internal"))
		if err != nil {
			return fmt.Errorf("invalid internal flag: %w", err)
		}
		sellable, err := strconv.ParseBool(row.get("sellable"))
		if err != nil {
			return fmt.Errorf("invalid sellable flag: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, row.get("name"), tier, active, internal, sellable); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit locations: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("locations loaded")
	return nil
}

// LoadShelfLives upserts shelf lives keyed by product. Expected
// columns: product_code, value, unit_code.
func (l *Loader) LoadShelfLives(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := keyIDMap(ctx, tx, "products", "code")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shelf_lives (product_id, value, unit_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE SET
			value = EXCLUDED.value,
			unit_code = EXCLUDED.unit_code
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare shelf lives upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"product_code", "value", "unit_code"}, func(row csvRow) error {
		productID, ok := products[row.get("product_code")]
		if !ok {
			return fmt.Errorf("unknown product code %q", row.get("product_code"))
		}

		value, err := strconv.ParseFloat(row.get("value"), 64)
		if err != nil {
			return fmt.Errorf("invalid shelf life value: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, productID, value, row.get("unit_code")); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shelf lives: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("shelf lives loaded")
	return nil
}

// LoadProductSignals upserts planning signals keyed by product. Empty
// cells become NULL. Expected columns: product_code, rpr, pwo,
// supply_pct.
func (l *Loader) LoadProductSignals(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := keyIDMap(ctx, tx, "products", "code")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product_signals (product_id, rpr, pwo, supply_pct)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE SET
			rpr = EXCLUDED.rpr,
			pwo = EXCLUDED.pwo,
			supply_pct = EXCLUDED.supply_pct
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare product signals upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"product_code", "rpr", "pwo", "supply_pct"}, func(row csvRow) error {
		productID, ok := products[row.get("product_code")]
		if !ok {
			return fmt.Errorf("unknown product code %q", row.get("product_code"))
		}

		rpr, err := parseNullableFloat(row.get("rpr"))
		if err != nil {
			return err
		}
		pwo, err := parseNullableFloat(row.get("pwo"))
		if err != nil {
			return err
		}
		supplyPct, err := parseNullableFloat(row.get("supply_pct"))
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx, productID, rpr, pwo, supplyPct); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product signals: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("product signals loaded")
	return nil
}

// LoadStockEvents upserts store-side stock readings keyed by
// (product, location, timestamp). Expected columns: product_code,
// location, tier, timestamp, quantity, type.
func (l *Loader) LoadStockEvents(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := keyIDMap(ctx, tx, "products", "code")
	if err != nil {
		return err
	}
	locations, err := keyIDMap(ctx, tx, "locations", "name")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stock_events (product_id, location_id, tier, timestamp, quantity, type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, location_id, timestamp) DO UPDATE SET
			tier = EXCLUDED.tier,
			quantity = EXCLUDED.quantity,
			type = EXCLUDED.type
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stock events upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"product_code", "location", "tier", "timestamp", "quantity", "type"}, func(row csvRow) error {
		productID, ok := products[row.get("product_code")]
		if !ok {
			return fmt.Errorf("unknown product code %q", row.get("product_code"))
		}
		locationID, ok := locations[row.get("location")]
		if !ok {
			return fmt.Errorf("unknown location %q", row.get("location"))
		}
		tier, ok := domain.ParseTier(row.get("tier"))
		if !ok {
			return fmt.Errorf("unknown tier %q", row.get("tier"))
		}

		ts, err := time.Parse(time.RFC3339, row.get("timestamp"))
		if err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}

		// Quantity passes through as text, postgres casts to numeric.
		_, err = stmt.ExecContext(ctx, productID, locationID, tier, ts, row.get("quantity"), row.get("type"))
		if err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock events: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("stock events loaded")
	return nil
}

// LoadShipments upserts provider-side readings keyed by (product, hub,
// timestamp). Expected columns: product_code, hub, timestamp, quantity,
// type.
func (l *Loader) LoadShipments(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := keyIDMap(ctx, tx, "products", "code")
	if err != nil {
		return err
	}
	locations, err := keyIDMap(ctx, tx, "locations", "name")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shipments (product_id, hub_id, timestamp, quantity, type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, hub_id, timestamp) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			type = EXCLUDED.type
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare shipments upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"product_code", "hub", "timestamp", "quantity", "type"}, func(row csvRow) error {
		productID, ok := products[row.get("product_code")]
		if !ok {
			return fmt.Errorf("unknown product code %q", row.get("product_code"))
		}
		hubID, ok := locations[row.get("hub")]
		if !ok {
			return fmt.Errorf("unknown hub %q", row.get("hub"))
		}

		ts, err := time.Parse(time.RFC3339, row.get("timestamp"))
		if err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}

		_, err = stmt.ExecContext(ctx, productID, hubID, ts, row.get("quantity"), row.get("type"))
		if err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shipments: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("shipments loaded")
	return nil
}

// LoadSaleWindows upserts sale periods keyed by (product, location,
// start). An empty ended_at keeps the window open. Expected columns:
// product_code, location, started_at, ended_at.
func (l *Loader) LoadSaleWindows(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := keyIDMap(ctx, tx, "products", "code")
	if err != nil {
		return err
	}
	locations, err := keyIDMap(ctx, tx, "locations", "name")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sale_windows (product_id, location_id, started_at, ended_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, location_id, started_at) DO UPDATE SET
			ended_at = EXCLUDED.ended_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sale windows upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"product_code", "location", "started_at", "ended_at"}, func(row csvRow) error {
		productID, ok := products[row.get("product_code")]
		if !ok {
			return fmt.Errorf("unknown product code %q", row.get("product_code"))
		}
		locationID, ok := locations[row.get("location")]
		if !ok {
			return fmt.Errorf("unknown location %q", row.get("location"))
		}

		startedAt, err := time.Parse(time.RFC3339, row.get("started_at"))
		if err != nil {
			return fmt.Errorf("invalid started_at: %w", err)
		}

		var endedAt sql.NullTime
		if raw := row.get("ended_at"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return fmt.Errorf("invalid ended_at: %w", err)
			}
			endedAt = sql.NullTime{Time: t, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, productID, locationID, startedAt, endedAt); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sale windows: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("sale windows loaded")
	return nil
}

// LoadProbeSamples upserts probe buckets keyed by (product, location,
// bucket, level). Expected columns: product_code, location,
// bucket_start, level, is_out.
func (l *Loader) LoadProbeSamples(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := keyIDMap(ctx, tx, "products", "code")
	if err != nil {
		return err
	}
	locations, err := keyIDMap(ctx, tx, "locations", "name")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO probe_samples (product_id, location_id, bucket_start, level, is_out)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, location_id, bucket_start, level) DO UPDATE SET
			is_out = EXCLUDED.is_out
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare probe samples upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRow(path, []string{"product_code", "location", "bucket_start", "level", "is_out"}, func(row csvRow) error {
		productID, ok := products[row.get("product_code")]
		if !ok {
			return fmt.Errorf("unknown product code %q", row.get("product_code"))
		}
		locationID, ok := locations[row.get("location")]
		if !ok {
			return fmt.Errorf("unknown location %q", row.get("location"))
		}

		level := domain.ProbeLevel(row.get("level"))
		if level != domain.ProbeLevelAB && level != domain.ProbeLevelTotal {
			return fmt.Errorf("unknown probe level %q", row.get("level"))
		}

		bucketStart, err := time.Parse(time.RFC3339, row.get("bucket_start"))
		if err != nil {
			return fmt.Errorf("invalid bucket_start: %w", err)
		}

		isOut, err := strconv.ParseBool(row.get("is_out"))
		if err != nil {
			return fmt.Errorf("invalid is_out flag: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, productID, locationID, bucketStart, level, isOut); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit probe samples: %w", err)
	}

	l.log.Info().Int("rows", count).Str("file", path).Msg("probe samples loaded")
	return nil
}
