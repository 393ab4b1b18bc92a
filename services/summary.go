package services

import (
	"fmt"
	"sort"
	"strings"

	"mandi-scraper/models"
	"mandi-scraper/utils"
)

type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate computes the end-of-run statistics over an assembled snapshot.
func (s *SummaryService) Generate(snap *models.RunSnapshot) *models.RunSummary {
	summary := &models.RunSummary{}
	if snap == nil {
		return summary
	}

	summary.TotalCrops = len(snap.Crops)
	for _, report := range snap.Crops {
		if len(report.Local) > 0 {
			summary.CropsWithLocal++
		}
		if len(report.Outstate) > 0 {
			summary.CropsWithOutstate++
		}
		summary.LocalQuotes += len(report.Local)
		summary.OutstateQuotes += len(report.Outstate)

		for market, quote := range report.Local {
			if summary.Top == nil || quote.ModalPrice > summary.Top.ModalPrice {
				summary.Top = &models.TopQuote{
					CropEnglish: report.English, Market: market, ModalPrice: quote.ModalPrice,
				}
			}
		}
		for market, quote := range report.Outstate {
			if summary.Top == nil || quote.ModalPrice > summary.Top.ModalPrice {
				summary.Top = &models.TopQuote{
					CropEnglish: report.English, Market: market, ModalPrice: quote.ModalPrice,
				}
			}
		}
	}

	return summary
}

func (s *SummaryService) Print(r *models.RunSummary, snap *models.RunSnapshot) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 MANDI PRICE SCRAPE SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Coverage
	fmt.Printf("\033[1;33m  Coverage\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Crops processed         : \033[1m%d\033[0m\n", r.TotalCrops)
	fmt.Printf("  Crops with local data   : \033[1m%d\033[0m\n", r.CropsWithLocal)
	fmt.Printf("  Crops with outstate data: \033[1m%d\033[0m\n", r.CropsWithOutstate)
	fmt.Printf("  Local market quotes     : \033[1m%d\033[0m\n", r.LocalQuotes)
	fmt.Printf("  Outstate market quotes  : \033[1m%d\033[0m\n", r.OutstateQuotes)
	fmt.Println()

	// Highest modal price
	if r.Top != nil {
		fmt.Printf("\033[1;33m  Highest Modal Price\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s at %s : \033[1;32m₹%d\033[0m\n", r.Top.CropEnglish, r.Top.Market, r.Top.ModalPrice)
		fmt.Println()
	}

	// Markets per crop, busiest first
	fmt.Printf("\033[1;33m  Markets per Crop\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if snap == nil || len(snap.Crops) == 0 {
		fmt.Printf("  No crop data\n")
	} else {
		type cropCount struct {
			english  string
			local    int
			outstate int
		}
		var counts []cropCount
		for _, report := range snap.Crops {
			counts = append(counts, cropCount{report.English, len(report.Local), len(report.Outstate)})
		}
		sort.Slice(counts, func(i, j int) bool {
			ti, tj := counts[i].local+counts[i].outstate, counts[j].local+counts[j].outstate
			if ti != tj {
				return ti > tj
			}
			return counts[i].english < counts[j].english
		})
		for _, c := range counts {
			bar := strings.Repeat("█", c.local+c.outstate)
			fmt.Printf("  %-14s %s (%d local, %d outstate)\n", c.english, bar, c.local, c.outstate)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	if snap != nil {
		fmt.Printf("\033[1;35m  ⏱  Completed in %s\033[0m\n", snap.ExecutionTimeFormatted)
		fmt.Printf("\033[1;35m%s\033[0m\n", sep)
	}
	fmt.Println()
}
