package models

import (
	"fmt"
	"time"
)

// MarketQuote is one market's price report for a crop. Prices are INR per
// quintal. Fields the source did not report stay nil and are omitted from
// the snapshot, so absence is never encoded as zero.
type MarketQuote struct {
	ModalPrice int     `json:"modal_price"`
	MinPrice   *int    `json:"min_price,omitempty"`
	MaxPrice   *int    `json:"max_price,omitempty"`
	Arrival    *int    `json:"arrival,omitempty"`
	Variety    *string `json:"variety,omitempty"`
	TradeDate  *string `json:"trade_date,omitempty"`
}

// Partition maps market name to quote within one side of a crop report.
type Partition map[string]MarketQuote

// CropReport is one crop's merged record: Maharashtra markets under Local,
// markets from other states under Outstate. The partitions are always
// non-nil so empty ones serialize as {} rather than null.
type CropReport struct {
	Marathi  string    `json:"marathi"`
	English  string    `json:"english"`
	Local    Partition `json:"local"`
	Outstate Partition `json:"outstate"`
}

// NewCropReport creates a CropReport with initialized empty partitions.
func NewCropReport(marathi, english string) *CropReport {
	return &CropReport{
		Marathi:  marathi,
		English:  english,
		Local:    make(Partition),
		Outstate: make(Partition),
	}
}

// RunSnapshot is the full result of one scrape run, serialized as the dated
// JSON snapshot file.
type RunSnapshot struct {
	Timestamp              time.Time              `json:"timestamp"`
	ExecutionTimeSeconds   float64                `json:"execution_time_seconds"`
	ExecutionTimeFormatted string                 `json:"execution_time_formatted"`
	Crops                  map[string]*CropReport `json:"crops"`
}

// FormatDuration renders a duration in the snapshot's "Xm Ys" form.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// TopQuote identifies the highest modal price seen in a run.
type TopQuote struct {
	CropEnglish string
	Market      string
	ModalPrice  int
}

// RunSummary holds the end-of-run statistics printed to the console.
type RunSummary struct {
	TotalCrops        int
	CropsWithLocal    int
	CropsWithOutstate int
	LocalQuotes       int
	OutstateQuotes    int
	Top               *TopQuote
}
