// backend-go/cmd/forecast/main.go
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandcast/backend-go/pkg/logger"
)

func newHistoryFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "history-file",
		Usage:   "Read sales history from a CSV or XLSX file instead of the database",
		EnvVars: []string{"HISTORY_FILE"},
	}
}

func newModelFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "model",
		Usage:   "Forecasting model (weekday_trend, moving_average, holt)",
		EnvVars: []string{"FORECAST_MODEL"},
	}
}

func newItemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "item", Aliases: []string{"i"}, Usage: "Item id", Required: true},
		&cli.StringFlag{Name: "store", Aliases: []string{"s"}, Usage: "Store id", Required: true},
	}
}

func main() {
	_ = godotenv.Load(".env")

	app := &cli.App{
		Name:  "forecast",
		Usage: "Demand forecasting and inventory planning",
		Flags: []cli.Flag{
			newHistoryFileFlag(),
			newModelFlag(),
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Forecast one item/store pair and print the result",
				Flags: append(newItemFlags(),
					&cli.IntFlag{Name: "horizon", Usage: "Days to forecast (defaults to FORECAST_DEFAULT_HORIZON)"},
					&cli.StringFlag{Name: "inventory", Usage: "Current on-hand stock"},
					&cli.Float64Flag{Name: "lead-time", Usage: "Lead time in days"},
					&cli.Float64Flag{Name: "service-level", Usage: "Target service level in (0, 1]"},
					&cli.BoolFlag{Name: "narrative", Usage: "Include the narrative summary"},
					&cli.BoolFlag{Name: "charts", Usage: "Include chart series"},
				),
				Action: runForecast,
			},
			{
				Name:  "batch",
				Usage: "Forecast every pair of a YAML watchlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Watchlist YAML", Value: "./configs/watchlist.yaml", EnvVars: []string{"SCHEDULER_WATCHLIST"}},
					&cli.StringFlag{Name: "export", Usage: "Write the results workbook to this path"},
					&cli.BoolFlag{Name: "upload", Usage: "Upload the results workbook to object storage"},
					&cli.BoolFlag{Name: "notify", Usage: "Post qualifying alerts to Slack"},
				},
				Action: runBatch,
			},
			{
				Name:  "items",
				Usage: "List item/store pairs with sales history",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum pairs to list", Value: 100},
				},
				Action: listItems,
			},
			{
				Name:  "backtest",
				Usage: "Score a model on the most recent days of a pair's history",
				Flags: append(newItemFlags(),
					&cli.IntFlag{Name: "holdout", Usage: "Days held out for scoring", Value: 28},
					&cli.BoolFlag{Name: "all-models", Usage: "Score every registered model"},
				),
				Action: runBacktest,
			},
			{
				Name:  "import",
				Usage: "Load a CSV or XLSX history file into the sales table",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "History file (date, item_id, store_id, sales)", Required: true},
				},
				Action: importHistory,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("forecast command failed")
	}
}
