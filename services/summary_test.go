package services

import (
	"testing"
	"time"

	"mandi-scraper/models"
	"mandi-scraper/utils"
)

func TestGenerateSummary(t *testing.T) {
	m := testMerger()

	local := map[string]models.Partition{
		"onion": {
			"पुणे":    {ModalPrice: 2400},
			"लासलगाव": {ModalPrice: 2500},
		},
	}
	outstate := map[string]models.Partition{
		"onion": {"Indore": {ModalPrice: 2000}},
		"wheat": {"Kota": {ModalPrice: 2900}},
	}
	started := time.Now()
	snap := m.Assemble(testCrops, local, nil, outstate, started, started)

	s := NewSummaryService(utils.NewLogger(false))
	summary := s.Generate(snap)

	if summary.TotalCrops != 2 {
		t.Errorf("total crops: got %d, want 2", summary.TotalCrops)
	}
	if summary.CropsWithLocal != 1 {
		t.Errorf("crops with local: got %d, want 1", summary.CropsWithLocal)
	}
	if summary.CropsWithOutstate != 2 {
		t.Errorf("crops with outstate: got %d, want 2", summary.CropsWithOutstate)
	}
	if summary.LocalQuotes != 2 {
		t.Errorf("local quotes: got %d, want 2", summary.LocalQuotes)
	}
	if summary.OutstateQuotes != 2 {
		t.Errorf("outstate quotes: got %d, want 2", summary.OutstateQuotes)
	}

	if summary.Top == nil {
		t.Fatal("top quote missing")
	}
	if summary.Top.ModalPrice != 2900 || summary.Top.Market != "Kota" || summary.Top.CropEnglish != "Wheat" {
		t.Errorf("top quote: got %+v, want Wheat at Kota for 2900", summary.Top)
	}
}

func TestGenerateSummaryEmptyRun(t *testing.T) {
	m := testMerger()
	started := time.Now()
	snap := m.Assemble(testCrops, nil, nil, nil, started, started)

	s := NewSummaryService(utils.NewLogger(false))
	summary := s.Generate(snap)

	if summary.TotalCrops != 2 {
		t.Errorf("total crops: got %d, want 2", summary.TotalCrops)
	}
	if summary.CropsWithLocal != 0 || summary.CropsWithOutstate != 0 {
		t.Error("no partitions should be counted for an empty run")
	}
	if summary.Top != nil {
		t.Errorf("top quote should be nil for an empty run, got %+v", summary.Top)
	}
}
