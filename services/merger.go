package services

import (
	"time"

	"mandi-scraper/config"
	"mandi-scraper/models"
	"mandi-scraper/utils"
)

// MergerService assembles the per-source partitions into one snapshot.
type MergerService struct {
	logger *utils.Logger
}

func NewMergerService(logger *utils.Logger) *MergerService {
	return &MergerService{logger: logger}
}

// Assemble builds the RunSnapshot for one run. Every crop gets a report,
// even when both sources came back empty for it. The primary source owns the
// local partition: portal fills only add markets it did not report, and a
// market name present in local never enters outstate.
func (s *MergerService) Assemble(crops []config.Crop, local, portalLocal, outstate map[string]models.Partition, started, finished time.Time) *models.RunSnapshot {
	elapsed := finished.Sub(started)

	snapshot := &models.RunSnapshot{
		Timestamp:              finished,
		ExecutionTimeSeconds:   round2(elapsed.Seconds()),
		ExecutionTimeFormatted: models.FormatDuration(elapsed),
		Crops:                  make(map[string]*models.CropReport, len(crops)),
	}

	for _, crop := range crops {
		report := models.NewCropReport(crop.Marathi, crop.English)

		for market, quote := range local[crop.Key] {
			report.Local[market] = quote
		}
		for market, quote := range portalLocal[crop.Key] {
			if _, exists := report.Local[market]; exists {
				s.logger.Warn("[merge] %s: primary source already reported %s, ignoring portal quote",
					crop.Key, market)
				continue
			}
			report.Local[market] = quote
		}
		for market, quote := range outstate[crop.Key] {
			if _, exists := report.Local[market]; exists {
				s.logger.Warn("[merge] %s: %s is a local market, dropping its outstate quote",
					crop.Key, market)
				continue
			}
			report.Outstate[market] = quote
		}

		snapshot.Crops[crop.Key] = report
	}

	return snapshot
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
