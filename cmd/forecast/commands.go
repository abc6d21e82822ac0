package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandcast/backend-go/internal/app"
	"github.com/andresuchdata/demandcast/backend-go/internal/cache"
	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/forecast"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/demandcast/backend-go/internal/report"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository"
	"github.com/andresuchdata/demandcast/backend-go/internal/scheduler"
	"github.com/andresuchdata/demandcast/backend-go/internal/service"
	"github.com/andresuchdata/demandcast/backend-go/pkg/logger"
)

func newApp(c *cli.Context, integrations bool) (*app.App, error) {
	cfg := config.Load()
	return app.New(c.Context, cfg, app.Options{
		HistoryFile:      c.String("history-file"),
		Model:            c.String("model"),
		SkipIntegrations: !integrations,
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runForecast(c *cli.Context) error {
	a, err := newApp(c, c.Bool("narrative"))
	if err != nil {
		return err
	}
	defer a.Close()

	req := pipeline.Request{
		ItemID:  c.String("item"),
		StoreID: c.String("store"),
		Horizon: c.Int("horizon"),
	}
	if raw := strings.TrimSpace(c.String("inventory")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.NewError(domain.KindInvalidParameter, "Invalid current inventory value. Please enter a number.")
		}
		req.CurrentInventory = &v
	}
	if c.IsSet("lead-time") || c.IsSet("service-level") {
		params := a.Service.DefaultParams()
		if c.IsSet("lead-time") {
			params.LeadTimeDays = c.Float64("lead-time")
		}
		if c.IsSet("service-level") {
			params.ServiceLevel = c.Float64("service-level")
		}
		req.Params = &params
	}

	resp := a.Service.Generate(c.Context, req, service.GenerateOptions{
		Narrative: c.Bool("narrative"),
		Charts:    c.Bool("charts"),
	})
	if err := printJSON(resp); err != nil {
		return err
	}
	if !resp.Success {
		return cli.Exit(resp.Error, 1)
	}
	return nil
}

func runBatch(c *cli.Context) error {
	a, err := newApp(c, c.Bool("upload") || c.Bool("notify"))
	if err != nil {
		return err
	}
	defer a.Close()

	job := &scheduler.Job{Runner: a.Runner, WatchlistPath: c.String("file")}
	if c.Bool("upload") {
		if a.Store == nil {
			return domain.NewError(domain.KindConfiguration, "--upload needs STORAGE_ENABLED and storage credentials")
		}
		job.Store = a.Store
	}
	if c.Bool("notify") {
		if a.Notifier == nil {
			return domain.NewError(domain.KindConfiguration, "--notify needs SLACK_WEBHOOK_URL")
		}
		job.Notifier = a.Notifier
	}

	out, err := job.Run(c.Context)
	if err != nil {
		return err
	}

	if path := c.String("export"); path != "" {
		data, err := report.BatchXLSX(out.Batch)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Log.Info().Str("path", path).Msg("batch report written")
	}
	if out.ReportKey != "" {
		logger.Log.Info().Str("key", out.ReportKey).Msg("batch report uploaded")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tSTORE\tSTATUS\tAVG DEMAND\tROP\tSAFETY STOCK\tTOP ACTION")
	for _, res := range out.Batch.Results {
		if !res.Success {
			fmt.Fprintf(w, "%s\t%s\tFAILED\t-\t-\t-\t%s\n", res.ItemID, res.StoreID, res.Error)
			continue
		}
		action := ""
		if len(res.Recommendations) > 0 {
			action = string(res.Recommendations[0].Action)
		}
		fmt.Fprintf(w, "%s\t%s\tOK\t%.2f\t%.2f\t%.2f\t%s\n", res.ItemID, res.StoreID,
			res.Metrics.AvgDailyDemand, res.Metrics.ReorderPoint, res.Metrics.SafetyStock, action)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d total, %d successful, %d failed\n", out.Batch.Total, out.Batch.Successful, out.Batch.Failed)
	return nil
}

func listItems(c *cli.Context) error {
	a, err := newApp(c, false)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Service.ListItems(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Printf("%s\t%s\n", item.ItemID, item.StoreID)
	}
	return nil
}

func runBacktest(c *cli.Context) error {
	a, err := newApp(c, false)
	if err != nil {
		return err
	}
	defer a.Close()

	models := []string{c.String("model")}
	if c.Bool("all-models") {
		models = a.Service.Models()
	}

	results := make([]forecast.BacktestResult, 0, len(models))
	for _, model := range models {
		res, err := a.Service.Backtest(c.Context, c.String("item"), c.String("store"), model, c.Int("holdout"))
		if err != nil {
			return err
		}
		res.Points = nil
		results = append(results, res)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tTRAIN\tHOLDOUT\tMAE\tRMSE\tMAPE %")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%.3f\t%.2f\n", res.Model, res.Train, res.Holdout,
			res.Accuracy.MAE, res.Accuracy.RMSE, res.Accuracy.MAPE)
	}
	return w.Flush()
}

func importHistory(c *cli.Context) error {
	cfg := config.Load()

	file, err := repository.LoadHistoryFile(c.String("file"))
	if err != nil {
		return err
	}

	a, err := app.New(c.Context, cfg, app.Options{SkipIntegrations: true})
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	total := 0
	for _, key := range file.Items() {
		series, err := file.FetchHistory(c.Context, key.ItemID, key.StoreID)
		if err != nil {
			return err
		}
		n, err := repository.ImportObservations(c.Context, a.DB, cfg.Database.SalesTable, key, series)
		if err != nil {
			return err
		}
		total += n
	}

	// cached results may predate the new rows
	if forecastCache, err := cache.NewForecastCache(cfg.Cache); err != nil {
		logger.Log.Warn().Err(err).Msg("could not reach forecast cache to invalidate it")
	} else if err := forecastCache.InvalidateAll(c.Context); err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache invalidation failed")
	}

	logger.Log.Info().
		Int("pairs", len(file.Items())).
		Int("rows", total).
		Dur("elapsed", time.Since(start)).
		Msg("history imported")
	return nil
}
