package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cartao/internal/cli"
	"cartao/internal/core"
	"cartao/internal/services"
	"cartao/internal/sheets"
	"cartao/internal/sheets/google"
	"cartao/internal/sheets/memory"
)

func main() {
	month := flag.Int("month", 0, "invoice month (1-12), defaults to the current invoice")
	year := flag.Int("year", 0, "invoice year, defaults to the current invoice")
	dryRun := flag.Bool("dry-run", false, "print the report instead of writing it to the spreadsheet")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger("report-export")

	cfg := cli.LoadAndValidateConfig(logger)
	if !*dryRun {
		if err := cfg.ValidateExport(); err != nil {
			logger.Error("Export configuration validation failed", "error", err)
			os.Exit(1)
		}
	}

	cycle, err := core.NewBillingCycle(cfg.TurnoverDay, cfg.DueDay)
	if err != nil {
		logger.Error("Invalid billing cycle", "error", err)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()
	reports := services.NewReportService(repo, cycle, core.SystemClock{Location: cfg.Location()})

	p := reports.CurrentPeriod()
	if *month != 0 {
		p.Month = *month
	}
	if *year != 0 {
		p.Year = *year
	}
	if err := p.Validate(); err != nil {
		logger.Error("Invalid period", "error", err, "month", *month, "year", *year)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if *dryRun {
		store := memory.New()
		if err := sheets.Export(ctx, reports, store, p); err != nil {
			logger.Error("Report export failed", "error", err, "period", p.String())
			os.Exit(1)
		}
		rows, _ := store.Tab(sheets.TabName(p))
		for _, row := range rows {
			fmt.Println(row...)
		}
		return
	}

	client, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if err := sheets.Export(ctx, reports, client, p); err != nil {
		logger.Error("Report export failed", "error", err, "period", p.String())
		os.Exit(1)
	}
}
