package config

import "testing"

func TestLoadCrops(t *testing.T) {
	table, err := LoadCrops()
	if err != nil {
		t.Fatalf("LoadCrops: %v", err)
	}

	if got := len(table.Crops); got != 14 {
		t.Errorf("crops: got %d, want 14", got)
	}
	if got := len(table.LocalMarkets); got != 27 {
		t.Errorf("local markets: got %d, want 27", got)
	}
	if got := len(table.MarketNames); got != 28 {
		t.Errorf("market name pairs: got %d, want 28", got)
	}
}

func TestCropOnMSAMB(t *testing.T) {
	table, err := LoadCrops()
	if err != nil {
		t.Fatalf("LoadCrops: %v", err)
	}

	byKey := make(map[string]Crop)
	for _, c := range table.Crops {
		byKey[c.Key] = c
	}

	onion, ok := byKey["onion"]
	if !ok {
		t.Fatal("onion missing from crop table")
	}
	if !onion.OnMSAMB() {
		t.Error("onion should be MSAMB tracked")
	}
	if onion.MSAMBValue != "08035" {
		t.Errorf("onion msamb value: got %q, want %q", onion.MSAMBValue, "08035")
	}

	cocoon, ok := byKey["silk-cocoonbh-double-hybr"]
	if !ok {
		t.Fatal("cocoon missing from crop table")
	}
	if cocoon.OnMSAMB() {
		t.Error("cocoon should not be MSAMB tracked")
	}
}

func TestIsMaharashtra(t *testing.T) {
	table, err := LoadCrops()
	if err != nil {
		t.Fatalf("LoadCrops: %v", err)
	}

	tests := []struct {
		state string
		want  bool
	}{
		{"Maharashtra", true},
		{"MAHARASHTRA", true},
		{"Maharastra", true},
		{"MH", true},
		{"Karnataka", false},
		{"Madhya Pradesh", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := table.IsMaharashtra(tt.state); got != tt.want {
			t.Errorf("IsMaharashtra(%q): got %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestTranslateMarket(t *testing.T) {
	table, err := LoadCrops()
	if err != nil {
		t.Fatalf("LoadCrops: %v", err)
	}

	tests := []struct {
		normalized string
		want       string
	}{
		{"pune", "पुणे"},
		{"punerural", "पुणे"},
		{"lasalgaon", "लासलगाव"},
		{"sangamner", "संगमनेर"},
		{"bangalore", ""},
	}
	for _, tt := range tests {
		if got := table.TranslateMarket(tt.normalized); got != tt.want {
			t.Errorf("TranslateMarket(%q): got %q, want %q", tt.normalized, got, tt.want)
		}
	}
}

func TestNormalizeMarket(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Pune Market", "punemarket"},
		{"LASALGAON-Vinchur", "lasalgaonvinchur"},
		{"  Rahata ", "rahata"},
	}
	for _, tt := range tests {
		if got := NormalizeMarket(tt.name); got != tt.want {
			t.Errorf("NormalizeMarket(%q): got %q, want %q", tt.name, got, tt.want)
		}
	}
}
