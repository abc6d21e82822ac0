package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository/sqldb"
)

const (
	DefaultSalesTable = "sales_long"
	defaultItemLimit  = 100
	maxItemLimit      = 1000
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// HistoryRepository reads daily sales series in long format
// (date, item_id, store_id, sales).
type HistoryRepository interface {
	FetchHistory(ctx context.Context, itemID, storeID string) ([]domain.SalesObservation, error)
	ListItems(ctx context.Context, limit int) ([]domain.ItemStore, error)
}

type historyRepository struct {
	db    *sqldb.DB
	table string
}

// NewHistoryRepository builds a SQL-backed repository over the given table.
func NewHistoryRepository(db *sqldb.DB, table string) (HistoryRepository, error) {
	if table == "" {
		table = DefaultSalesTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, domain.NewError(domain.KindConfiguration, "invalid sales table name %q", table)
	}
	return &historyRepository{db: db, table: table}, nil
}

type salesRow struct {
	Date  string         `db:"date"`
	Sales sql.NullString `db:"sales"`
}

func (r *historyRepository) FetchHistory(ctx context.Context, itemID, storeID string) ([]domain.SalesObservation, error) {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := r.db.Rebind(fmt.Sprintf(`
		SELECT date, sales
		FROM %s
		WHERE item_id = ? AND store_id = ?
		ORDER BY date
	`, r.table))

	var rows []salesRow
	if err := r.db.SelectContext(ctx, &rows, query, itemID, storeID); err != nil {
		return nil, fmt.Errorf("error fetching sales history: %w", err)
	}

	raw := make([]rawObservation, len(rows))
	for i, row := range rows {
		raw[i] = rawObservation{date: row.Date, sales: row.Sales.String}
	}
	series := normalizeSeries(raw)

	if len(series) == 0 {
		return nil, domain.NewError(domain.KindNotFound,
			"No data found for item '%s' in store '%s'", itemID, storeID)
	}

	log.Debug().Str("item_id", itemID).Str("store_id", storeID).
		Int("rows", len(rows)).Int("days", len(series)).Msg("sales history loaded")

	return series, nil
}

func (r *historyRepository) ListItems(ctx context.Context, limit int) ([]domain.ItemStore, error) {
	limit = clampLimit(limit)

	release, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := r.db.Rebind(fmt.Sprintf(`
		SELECT DISTINCT item_id, store_id
		FROM %s
		ORDER BY item_id, store_id
		LIMIT ?
	`, r.table))

	var items []domain.ItemStore
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}

	return items, nil
}

// EnsureSalesTable creates the long-format sales table and its lookup index
// when missing. The DDL is valid for both sqlite and postgres.
func EnsureSalesTable(ctx context.Context, db *sqldb.DB, table string) error {
	if table == "" {
		table = DefaultSalesTable
	}
	if !tableNamePattern.MatchString(table) {
		return domain.NewError(domain.KindConfiguration, "invalid sales table name %q", table)
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			date     TEXT NOT NULL,
			item_id  TEXT NOT NULL,
			store_id TEXT NOT NULL,
			sales    DOUBLE PRECISION
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_item_store ON %s (item_id, store_id, date)`, table, table),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare %s: %w", table, err)
		}
	}
	return nil
}

// ImportObservations appends a series for one pair inside a transaction.
func ImportObservations(ctx context.Context, db *sqldb.DB, table string, key domain.ItemStore, series []domain.SalesObservation) (int, error) {
	if table == "" {
		table = DefaultSalesTable
	}
	if !tableNamePattern.MatchString(table) {
		return 0, domain.NewError(domain.KindConfiguration, "invalid sales table name %q", table)
	}

	query := db.Rebind(fmt.Sprintf(`INSERT INTO %s (date, item_id, store_id, sales) VALUES (?, ?, ?, ?)`, table))

	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, obs := range series {
			if _, err := stmt.ExecContext(ctx, obs.Date.Format("2006-01-02"), key.ItemID, key.StoreID, obs.Sales); err != nil {
				return fmt.Errorf("failed to insert %s/%s on %s: %w", key.ItemID, key.StoreID, obs.Date.Format("2006-01-02"), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(series), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultItemLimit
	}
	if limit > maxItemLimit {
		return maxItemLimit
	}
	return limit
}
