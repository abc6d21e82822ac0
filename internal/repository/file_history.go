package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

var requiredColumns = []string{"date", "item_id", "store_id", "sales"}

// FileHistoryRepository serves sales history loaded from a CSV or XLSX export
// in long format. The whole file is held in memory.
type FileHistoryRepository struct {
	series map[domain.ItemStore][]domain.SalesObservation
	items  []domain.ItemStore
}

// LoadHistoryFile reads a .csv or .xlsx file with date, item_id, store_id and
// sales columns (header names are case-insensitive).
func LoadHistoryFile(path string) (*FileHistoryRepository, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return LoadHistoryCSV(f)
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return LoadHistoryXLSX(f)
	default:
		return nil, domain.NewError(domain.KindInvalidParameter,
			"unsupported history file %s (expected .csv or .xlsx)", filepath.Base(path))
	}
}

// LoadHistoryCSV parses long-format CSV.
func LoadHistoryCSV(r io.Reader) (*FileHistoryRepository, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		records = append(records, record)
	}

	return buildFileRepository(header, records)
}

// LoadHistoryXLSX parses the first sheet of a workbook.
func LoadHistoryXLSX(r io.Reader) (*FileHistoryRepository, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewError(domain.KindInvalidParameter, "xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, domain.NewError(domain.KindInvalidParameter, "sheet %s is empty", sheets[0])
	}

	return buildFileRepository(rows[0], rows[1:])
}

func buildFileRepository(header []string, records [][]string) (*FileHistoryRepository, error) {
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, domain.NewError(domain.KindInvalidParameter, "missing required column: %s", col)
		}
	}

	cell := func(record []string, col string) string {
		idx := colMap[col]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	grouped := make(map[domain.ItemStore][]rawObservation)
	for _, record := range records {
		key := domain.ItemStore{ItemID: cell(record, "item_id"), StoreID: cell(record, "store_id")}
		if key.ItemID == "" || key.StoreID == "" {
			continue
		}
		grouped[key] = append(grouped[key], rawObservation{date: cell(record, "date"), sales: cell(record, "sales")})
	}

	repo := &FileHistoryRepository{series: make(map[domain.ItemStore][]domain.SalesObservation, len(grouped))}
	for key, rows := range grouped {
		series := normalizeSeries(rows)
		if len(series) == 0 {
			continue
		}
		repo.series[key] = series
		repo.items = append(repo.items, key)
	}
	sort.Slice(repo.items, func(i, j int) bool {
		if repo.items[i].ItemID != repo.items[j].ItemID {
			return repo.items[i].ItemID < repo.items[j].ItemID
		}
		return repo.items[i].StoreID < repo.items[j].StoreID
	})

	return repo, nil
}

func (r *FileHistoryRepository) FetchHistory(ctx context.Context, itemID, storeID string) ([]domain.SalesObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series, ok := r.series[domain.ItemStore{ItemID: itemID, StoreID: storeID}]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound,
			"No data found for item '%s' in store '%s'", itemID, storeID)
	}
	out := make([]domain.SalesObservation, len(series))
	copy(out, series)
	return out, nil
}

// Items returns every pair in the file, ordered by item then store.
func (r *FileHistoryRepository) Items() []domain.ItemStore {
	out := make([]domain.ItemStore, len(r.items))
	copy(out, r.items)
	return out
}

func (r *FileHistoryRepository) ListItems(ctx context.Context, limit int) ([]domain.ItemStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	if limit > len(r.items) {
		limit = len(r.items)
	}
	out := make([]domain.ItemStore, limit)
	copy(out, r.items[:limit])
	return out, nil
}
