package main

import (
	"fmt"
	"os"
	"time"

	"mandi-scraper/config"
	"mandi-scraper/models"
	"mandi-scraper/scraper"
	"mandi-scraper/scraper/commodityonline"
	"mandi-scraper/scraper/msamb"
	"mandi-scraper/services"
	"mandi-scraper/storage"
	"mandi-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Verbose)

	logger.Info("=== Mandi Price Scraper starting ===")
	logger.Info("Config — output: %s | headless: %v | archive: %v",
		cfg.OutputDir, cfg.Headless, cfg.ArchiveEnabled)

	table, err := config.LoadCrops()
	if err != nil {
		logger.Error("Failed to load crop table: %v", err)
		os.Exit(1)
	}
	logger.Info("Tracking %d crops across %d target markets", len(table.Crops), len(table.LocalMarkets))

	started := time.Now()

	local, primaryOK := runPrimary(cfg, table, logger)
	coRes, secondaryOK := runSecondary(cfg, table, logger, local)

	if !primaryOK && !secondaryOK {
		logger.Error("Both price sources failed. Exiting without writing a snapshot.")
		os.Exit(1)
	}

	finished := time.Now()

	merger := services.NewMergerService(logger)
	snapshot := merger.Assemble(table.Crops, local, coRes.Local, coRes.Outstate, started, finished)

	writer := storage.NewSnapshotWriter(cfg.OutputDir)
	path, err := writer.Write(snapshot, finished)
	if err != nil {
		logger.Error("Snapshot write failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Snapshot saved to %s", path)

	if cfg.ArchiveEnabled {
		archive, err := storage.NewPostgresArchive(cfg.DSN())
		if err != nil {
			logger.Error("PostgreSQL archive unavailable: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
		} else {
			if err := archive.ArchiveRun(snapshot, finished); err != nil {
				logger.Error("PostgreSQL archive failed: %v", err)
			} else {
				logger.Info("Run archived in PostgreSQL (tables: scrape_runs, market_quotes)")
			}
			archive.Close()
		}
	}

	summarySvc := services.NewSummaryService(logger)
	summary := summarySvc.Generate(snapshot)
	summarySvc.Print(summary, snapshot)

	fmt.Printf("  Done. Snapshot → %s | completed in %s\n\n", path, snapshot.ExecutionTimeFormatted)
}

// runPrimary scrapes the MSAMB price board for every tracked crop. A dead
// session or unreachable site fails the whole source; per-crop problems are
// logged inside the extractor and skipped.
func runPrimary(cfg *config.Config, table *config.CropTable, logger *utils.Logger) (map[string]models.Partition, bool) {
	session, err := scraper.NewSession(cfg, logger)
	if err != nil {
		logger.Error("MSAMB session failed to start: %v", err)
		return map[string]models.Partition{}, false
	}
	defer session.Close()

	local, err := msamb.New(table, logger).Extract(session)
	if err != nil {
		logger.Error("MSAMB extraction failed: %v", err)
		return map[string]models.Partition{}, false
	}
	return local, true
}

// runSecondary scrapes CommodityOnline, filling target markets MSAMB missed
// and collecting out-of-state prices. It gets a fresh browser so a crashed
// primary session cannot take the fallback down with it.
func runSecondary(cfg *config.Config, table *config.CropTable, logger *utils.Logger, local map[string]models.Partition) (commodityonline.Result, bool) {
	session, err := scraper.NewSession(cfg, logger)
	if err != nil {
		logger.Error("CommodityOnline session failed to start: %v", err)
		return commodityonline.Result{}, false
	}
	defer session.Close()

	res, err := commodityonline.New(table, logger).Extract(session, local)
	if err != nil {
		logger.Error("CommodityOnline extraction failed: %v", err)
		return commodityonline.Result{}, false
	}
	return res, true
}
