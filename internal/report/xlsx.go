// Package report renders batch forecast results as spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

const (
	SummarySheet  = "Summary"
	ForecastSheet = "Forecast"
	AlertSheet    = "Alerts"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var summaryHeader = []interface{}{
	"Item", "Store", "Status", "Error", "Model", "Horizon",
	"Avg Daily Demand", "Total Forecast", "Safety Stock", "Reorder Point", "EOQ",
	"Current Inventory", "Days of Stock", "Top Alert", "Top Action", "Suggested Quantity",
}

var forecastHeader = []interface{}{"Item", "Store", "Date", "Predicted", "Lower", "Upper"}

var alertHeader = []interface{}{"Item", "Store", "Type", "Urgency", "Message"}

// FileName returns the object name used for a batch report generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("forecast-batch-%s.xlsx", t.UTC().Format("20060102T150405Z"))
}

// BuildBatchWorkbook writes one summary row per result, plus forecast and
// alert detail rows for the successful ones.
func BuildBatchWorkbook(batch pipeline.BatchResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{ForecastSheet, AlertSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &sheetWriter{f: f}
	w.header(SummarySheet, summaryHeader, headerStyle)
	w.header(ForecastSheet, forecastHeader, headerStyle)
	w.header(AlertSheet, alertHeader, headerStyle)

	summaryRow, forecastRow, alertRow := 2, 2, 2
	for _, res := range batch.Results {
		w.row(SummarySheet, summaryRow, summaryValues(res))
		summaryRow++

		if !res.Success {
			continue
		}
		for _, pt := range res.Forecast {
			w.row(ForecastSheet, forecastRow, []interface{}{
				res.ItemID, res.StoreID, pt.Date.Format("2006-01-02"),
				domain.Round2(pt.PredictedDemand), domain.Round2(pt.LowerBound), domain.Round2(pt.UpperBound),
			})
			forecastRow++
		}
		for _, a := range res.Alerts {
			w.row(AlertSheet, alertRow, []interface{}{res.ItemID, res.StoreID, string(a.Kind), string(a.Urgency), a.Message})
			alertRow++
		}
	}

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// BatchXLSX renders the batch workbook to bytes.
func BatchXLSX(batch pipeline.BatchResult) ([]byte, error) {
	f, err := BuildBatchWorkbook(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to build batch workbook: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write batch workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func summaryValues(res pipeline.Result) []interface{} {
	if !res.Success {
		return []interface{}{res.ItemID, res.StoreID, "FAILED", res.Error, res.ModelUsed, res.Horizon}
	}

	row := []interface{}{res.ItemID, res.StoreID, "OK", "", res.ModelUsed, res.Horizon}
	m := res.Metrics
	if m == nil {
		m = &domain.InventoryMetrics{}
	}
	row = append(row,
		m.AvgDailyDemand, m.TotalForecast, m.SafetyStock, m.ReorderPoint, m.EconomicOrderQuantity,
		optional(res.CurrentStock), optional(m.DaysOfStock),
	)

	topAlert := ""
	if len(res.Alerts) > 0 {
		topAlert = fmt.Sprintf("%s (%s)", res.Alerts[0].Kind, res.Alerts[0].Urgency)
	}
	topAction, suggested := "", interface{}("")
	if len(res.Recommendations) > 0 {
		topAction = string(res.Recommendations[0].Action)
		suggested = optional(res.Recommendations[0].SuggestedQuantity)
	}
	return append(row, topAlert, topAction, suggested)
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return domain.Round2(*v)
}

// sheetWriter keeps the first error so row writes stay readable.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) header(sheet string, values []interface{}, style int) {
	w.row(sheet, 1, values)
	if w.err != nil {
		return
	}
	w.err = w.f.SetRowStyle(sheet, 1, 1, style)
}

func (w *sheetWriter) row(sheet string, row int, values []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}
