package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/inventory"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/demandcast/backend-go/internal/report"
	"github.com/andresuchdata/demandcast/backend-go/internal/service"
)

const invalidInventoryMessage = "Invalid current inventory value. Please enter a number."

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// paramOverrides are the flat operating parameters accepted by the endpoints.
type paramOverrides struct {
	LeadTimeDays       *float64 `json:"lead_time_days"`
	ServiceLevel       *float64 `json:"service_level"`
	OrderCost          *float64 `json:"order_cost"`
	HoldingCostPerUnit *float64 `json:"holding_cost_per_unit"`
}

func (o paramOverrides) apply(base inventory.Params) *inventory.Params {
	if o.LeadTimeDays == nil && o.ServiceLevel == nil && o.OrderCost == nil && o.HoldingCostPerUnit == nil {
		return nil
	}
	if o.LeadTimeDays != nil {
		base.LeadTimeDays = *o.LeadTimeDays
	}
	if o.ServiceLevel != nil {
		base.ServiceLevel = *o.ServiceLevel
	}
	if o.OrderCost != nil {
		base.OrderCost = *o.OrderCost
	}
	if o.HoldingCostPerUnit != nil {
		base.HoldingCostPerUnit = *o.HoldingCostPerUnit
	}
	return &base
}

type generateRequest struct {
	ItemID           string          `json:"item_id"`
	StoreID          string          `json:"store_id"`
	Horizon          int             `json:"horizon"`
	CurrentInventory json.RawMessage `json:"current_inventory"`
	Narrative        *bool           `json:"narrative"`
	Charts           *bool           `json:"charts"`
	paramOverrides
}

// batchItem mirrors pipeline.BatchItem with the same lenient stock parsing
// as /generate.
type batchItem struct {
	ItemID           string          `json:"item_id"`
	StoreID          string          `json:"store_id"`
	CurrentInventory json.RawMessage `json:"current_inventory"`
}

type batchRequest struct {
	Items   []batchItem `json:"items"`
	Horizon int         `json:"horizon"`
	paramOverrides
}

// GenerateForecast handles POST /forecast/generate.
func (h *ForecastHandler) GenerateForecast(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.ItemID) == "" || strings.TrimSpace(req.StoreID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "item_id and store_id are required"})
		return
	}

	current, err := parseInventory(req.CurrentInventory)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": invalidInventoryMessage})
		return
	}

	resp := h.service.Generate(c.Request.Context(), pipeline.Request{
		ItemID:           req.ItemID,
		StoreID:          req.StoreID,
		Horizon:          req.Horizon,
		CurrentInventory: current,
		Params:           req.apply(h.service.DefaultParams()),
	}, service.GenerateOptions{
		Narrative: boolOr(req.Narrative, true),
		Charts:    boolOr(req.Charts, true),
	})

	if !resp.Success {
		c.JSON(StatusForKind(resp.ErrorKind), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BatchForecast handles POST /forecast/batch. With ?format=xlsx the results
// are returned as a workbook instead of JSON.
func (h *ForecastHandler) BatchForecast(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "items list is required"})
		return
	}

	batch := h.runBatch(c, req)

	if strings.EqualFold(c.Query("format"), "xlsx") {
		data, err := report.BatchXLSX(batch)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to build report", "details": err.Error()})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(time.Now())))
		c.Data(http.StatusOK, report.ContentTypeXLSX, data)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"total":      batch.Total,
		"successful": batch.Successful,
		"failed":     batch.Failed,
		"results":    batch.Results,
	})
}

// runBatch forecasts the readable items and slots a failure in for every
// item whose stock level could not be parsed.
func (h *ForecastHandler) runBatch(c *gin.Context, req batchRequest) pipeline.BatchResult {
	results := make([]pipeline.Result, len(req.Items))
	valid := make([]pipeline.BatchItem, 0, len(req.Items))
	slots := make([]int, 0, len(req.Items))

	for i, item := range req.Items {
		current, err := parseInventory(item.CurrentInventory)
		if err != nil {
			results[i] = pipeline.Rejected(item.ItemID, item.StoreID,
				domain.WrapError(domain.KindInvalidParameter, err, invalidInventoryMessage))
			continue
		}
		valid = append(valid, pipeline.BatchItem{
			ItemStore:        domain.ItemStore{ItemID: item.ItemID, StoreID: item.StoreID},
			CurrentInventory: current,
		})
		slots = append(slots, i)
	}

	if len(valid) > 0 {
		ran := h.service.RunBatch(c.Request.Context(), pipeline.BatchRequest{
			Items:   valid,
			Horizon: req.Horizon,
			Params:  req.apply(h.service.DefaultParams()),
		})
		for j, res := range ran.Results {
			results[slots[j]] = res
		}
	}
	return pipeline.NewBatchResult(results)
}

// ListItems handles GET /forecast/items.
func (h *ForecastHandler) ListItems(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be an integer"})
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), limit)
	if err != nil {
		c.JSON(StatusForKind(domain.KindOf(err)), gin.H{"success": false, "error": "failed to fetch items", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(items),
		"items":   items,
	})
}

// Backtest handles GET /forecast/backtest.
func (h *ForecastHandler) Backtest(c *gin.Context) {
	holdout, err := strconv.Atoi(c.DefaultQuery("holdout", "28"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "holdout must be an integer"})
		return
	}

	res, err := h.service.Backtest(c.Request.Context(), c.Query("item_id"), c.Query("store_id"), c.Query("model"), holdout)
	if err != nil {
		c.JSON(StatusForKind(domain.KindOf(err)), gin.H{
			"success":    false,
			"error":      domain.UserMessage(err),
			"error_kind": domain.KindOf(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "backtest": res})
}

// Status handles GET /forecast/test.
func (h *ForecastHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"message":       "Forecast system is running",
		"default_model": h.service.DefaultModel(),
		"models":        h.service.Models(),
		"endpoints": gin.H{
			"api_generate": "/api/v1/forecast/generate",
			"api_items":    "/api/v1/forecast/items",
			"api_batch":    "/api/v1/forecast/batch",
			"api_backtest": "/api/v1/forecast/backtest",
		},
	})
}

// StatusForKind maps a failure kind to an HTTP status.
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidParameter, domain.KindInsufficientData, domain.KindUnsupportedModel, domain.KindConfiguration:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindModelFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseInventory accepts a JSON number, a numeric string, or null/"" for
// "not supplied".
func parseInventory(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return &num, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("current inventory must be finite")
	}
	return &v, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
