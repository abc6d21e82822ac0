package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository/sqldb"
)

func newSQLiteDB(t *testing.T) *sqldb.DB {
	t.Helper()
	db, err := sqldb.NewDB(&config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE sales_long (date TEXT, item_id TEXT, store_id TEXT, sales TEXT)`)
	require.NoError(t, err)
	return db
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestHistoryRepository_FetchHistory(t *testing.T) {
	db := newSQLiteDB(t)
	rows := [][]interface{}{
		{"2016-01-03", "FOODS_1_001", "CA_1", "5"},
		{"2016-01-01", "FOODS_1_001", "CA_1", "3"},
		{"2016-01-02", "FOODS_1_001", "CA_1", "n/a"},
		{"2016-01-02", "FOODS_1_002", "CA_1", "9"},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO sales_long (date, item_id, store_id, sales) VALUES (?, ?, ?, ?)`, r...)
		require.NoError(t, err)
	}

	repo, err := NewHistoryRepository(db, "")
	require.NoError(t, err)

	series, err := repo.FetchHistory(context.Background(), "FOODS_1_001", "CA_1")
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, day("2016-01-01"), series[0].Date)
	assert.Equal(t, 3.0, series[0].Sales)
	assert.Equal(t, 0.0, series[1].Sales)
	assert.Equal(t, 5.0, series[2].Sales)

	_, err = repo.FetchHistory(context.Background(), "FOODS_9_999", "CA_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "FOODS_9_999")
}

func TestHistoryRepository_ListItemsAndImport(t *testing.T) {
	db := newSQLiteDB(t)
	repo, err := NewHistoryRepository(db, "sales_long")
	require.NoError(t, err)

	series := []domain.SalesObservation{
		{Date: day("2016-02-01"), Sales: 1},
		{Date: day("2016-02-02"), Sales: 2},
	}
	for _, key := range []domain.ItemStore{{ItemID: "B", StoreID: "TX_1"}, {ItemID: "A", StoreID: "CA_1"}, {ItemID: "A", StoreID: "CA_2"}} {
		n, err := ImportObservations(context.Background(), db, "", key, series)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	items, err := repo.ListItems(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemStore{{ItemID: "A", StoreID: "CA_1"}, {ItemID: "A", StoreID: "CA_2"}}, items)

	items, err = repo.ListItems(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	got, err := repo.FetchHistory(context.Background(), "B", "TX_1")
	require.NoError(t, err)
	assert.Equal(t, series, got)
}

func TestNewHistoryRepository_RejectsBadTableName(t *testing.T) {
	_, err := NewHistoryRepository(nil, "sales; DROP TABLE x")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNormalizeSeries(t *testing.T) {
	series := normalizeSeries([]rawObservation{
		{date: "2016-01-02", sales: "4"},
		{date: "2016-01-01T00:00:00Z", sales: "1.5"},
		{date: "2016-01-02", sales: "7"},
		{date: "not a date", sales: "100"},
		{date: "2016-01-03 00:00:00", sales: "-2"},
	})

	require.Len(t, series, 3)
	assert.Equal(t, 1.5, series[0].Sales)
	assert.Equal(t, 7.0, series[1].Sales, "last duplicate wins")
	assert.Equal(t, 0.0, series[2].Sales)
}

const csvFixture = `Date,Item_ID,Store_ID,Sales
2016-01-02,HOBBIES_1_001,CA_1,2
2016-01-01,HOBBIES_1_001,CA_1,1
2016-01-02,HOBBIES_1_001,CA_1,6
2016-01-01,HOBBIES_1_002,WI_1,abc
,HOBBIES_1_002,WI_1,3
`

func TestLoadHistoryCSV(t *testing.T) {
	repo, err := LoadHistoryCSV(strings.NewReader(csvFixture))
	require.NoError(t, err)

	series, err := repo.FetchHistory(context.Background(), "HOBBIES_1_001", "CA_1")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 1.0, series[0].Sales)
	assert.Equal(t, 6.0, series[1].Sales)

	series, err = repo.FetchHistory(context.Background(), "HOBBIES_1_002", "WI_1")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 0.0, series[0].Sales)

	items, err := repo.ListItems(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemStore{{ItemID: "HOBBIES_1_001", StoreID: "CA_1"}, {ItemID: "HOBBIES_1_002", StoreID: "WI_1"}}, items)

	_, err = repo.FetchHistory(context.Background(), "X", "Y")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadHistoryCSV_MissingColumn(t *testing.T) {
	_, err := LoadHistoryCSV(strings.NewReader("date,item_id,sales\n2016-01-01,A,1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "store_id")
}

func TestLoadHistoryXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"date", "item_id", "store_id", "sales"},
		{"2016-01-01", "FOODS_3_090", "TX_2", 12},
		{"2016-01-02", "FOODS_3_090", "TX_2", 15},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	repo, err := LoadHistoryXLSX(buf)
	require.NoError(t, err)

	series, err := repo.FetchHistory(context.Background(), "FOODS_3_090", "TX_2")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 15.0, series[1].Sales)
}

func TestEnsureSalesTableAndImport(t *testing.T) {
	db, err := sqldb.NewDB(&config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, EnsureSalesTable(ctx, db, ""))
	// idempotent
	require.NoError(t, EnsureSalesTable(ctx, db, ""))
	assert.ErrorIs(t, EnsureSalesTable(ctx, db, "sales; DROP"), domain.ErrConfiguration)

	key := domain.ItemStore{ItemID: "FOODS_2_010", StoreID: "WI_3"}
	n, err := ImportObservations(ctx, db, "", key, []domain.SalesObservation{
		{Date: day("2016-02-01"), Sales: 4},
		{Date: day("2016-02-02"), Sales: 6.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	repo, err := NewHistoryRepository(db, "")
	require.NoError(t, err)
	series, err := repo.FetchHistory(ctx, key.ItemID, key.StoreID)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 6.5, series[1].Sales)
}
