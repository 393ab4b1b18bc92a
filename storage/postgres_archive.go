package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"mandi-scraper/models"
)

// PostgresArchive keeps a queryable history of scrape runs alongside the
// JSON snapshots.
type PostgresArchive struct {
	db *sql.DB
}

// NewPostgresArchive opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use archive.
func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	a := &PostgresArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return a, nil
}

func (a *PostgresArchive) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS scrape_runs (
			id                UUID PRIMARY KEY,
			run_date          DATE          NOT NULL,
			finished_at       TIMESTAMPTZ   NOT NULL,
			execution_seconds NUMERIC(10,2) NOT NULL,
			crops_total       INT           NOT NULL
		);

		CREATE TABLE IF NOT EXISTS market_quotes (
			id          SERIAL PRIMARY KEY,
			run_id      UUID        NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
			crop_key    VARCHAR(64) NOT NULL,
			scope       VARCHAR(16) NOT NULL,
			market      TEXT        NOT NULL,
			modal_price INT         NOT NULL,
			min_price   INT,
			max_price   INT,
			arrival     INT,
			variety     TEXT,
			trade_date  VARCHAR(16)
		);

		CREATE INDEX IF NOT EXISTS idx_scrape_runs_run_date   ON scrape_runs(run_date);
		CREATE INDEX IF NOT EXISTS idx_market_quotes_run_id   ON market_quotes(run_id);
		CREATE INDEX IF NOT EXISTS idx_market_quotes_crop_key ON market_quotes(crop_key);
	`)
	return err
}

// clearDate deletes any archived run for the date; quote rows go with it
// through the cascade.
func (a *PostgresArchive) clearDate(day string) error {
	_, err := a.db.Exec("DELETE FROM scrape_runs WHERE run_date = $1", day)
	if err != nil {
		return fmt.Errorf("postgres: clear run date: %w", err)
	}
	return nil
}

type quoteRow struct {
	cropKey string
	scope   string
	market  string
	quote   models.MarketQuote
}

// ArchiveRun stores a snapshot under its run date, clearing any earlier
// archive for the same date first so reruns match the snapshot file's
// overwrite behavior.
func (a *PostgresArchive) ArchiveRun(snap *models.RunSnapshot, runDate time.Time) error {
	day := runDate.Format("2006-01-02")

	if err := a.clearDate(day); err != nil {
		return err
	}

	runID := uuid.New()
	_, err := a.db.Exec(`
		INSERT INTO scrape_runs (id, run_date, finished_at, execution_seconds, crops_total)
		VALUES ($1, $2, $3, $4, $5)
	`, runID, day, snap.Timestamp, snap.ExecutionTimeSeconds, len(snap.Crops))
	if err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	var rows []quoteRow
	for key, report := range snap.Crops {
		for market, quote := range report.Local {
			rows = append(rows, quoteRow{key, "local", market, quote})
		}
		for market, quote := range report.Outstate {
			rows = append(rows, quoteRow{key, "outstate", market, quote})
		}
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := a.insertBatch(runID, rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (a *PostgresArchive) insertBatch(runID uuid.UUID, batch []quoteRow) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*10)

	for idx, r := range batch {
		base := idx * 10
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		valueArgs = append(valueArgs,
			runID, r.cropKey, r.scope, r.market, r.quote.ModalPrice,
			nullableInt(r.quote.MinPrice), nullableInt(r.quote.MaxPrice),
			nullableInt(r.quote.Arrival), nullableString(r.quote.Variety),
			nullableString(r.quote.TradeDate))
	}

	query := fmt.Sprintf(`
		INSERT INTO market_quotes (run_id, crop_key, scope, market, modal_price,
			min_price, max_price, arrival, variety, trade_date)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := a.db.Exec(query, valueArgs...)
	return err
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
