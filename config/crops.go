package config

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed crops.yaml
var cropsYAML []byte

// Crop describes one tracked commodity and where its prices come from.
type Crop struct {
	Key        string `yaml:"key"`
	English    string `yaml:"english"`
	Marathi    string `yaml:"marathi"`
	MSAMBValue string `yaml:"msamb_value"`
	Slug       string `yaml:"slug"`
}

// OnMSAMB reports whether the crop is tracked on the msamb.com board.
func (c Crop) OnMSAMB() bool {
	return c.MSAMBValue != ""
}

// NamePair maps a commodityonline.com market name fragment to the Marathi
// market name used in snapshots.
type NamePair struct {
	English string `yaml:"english"`
	Marathi string `yaml:"marathi"`
}

// CropTable is the static crop and market reference data embedded in the
// binary.
type CropTable struct {
	Crops                 []Crop     `yaml:"crops"`
	LocalMarkets          []string   `yaml:"local_markets"`
	MarketNames           []NamePair `yaml:"market_names"`
	MaharashtraVariations []string   `yaml:"maharashtra_variations"`
}

// LoadCrops parses and validates the embedded crop table.
func LoadCrops() (*CropTable, error) {
	var table CropTable
	if err := yaml.Unmarshal(cropsYAML, &table); err != nil {
		return nil, fmt.Errorf("crops: parse embedded table: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, fmt.Errorf("crops: %w", err)
	}
	return &table, nil
}

func (t *CropTable) validate() error {
	if len(t.Crops) == 0 {
		return fmt.Errorf("no crops defined")
	}
	if len(t.LocalMarkets) == 0 {
		return fmt.Errorf("no local markets defined")
	}

	keys := make(map[string]struct{}, len(t.Crops))
	for _, c := range t.Crops {
		if c.Key == "" || c.English == "" || c.Marathi == "" || c.Slug == "" {
			return fmt.Errorf("crop %q: key, english, marathi and slug are required", c.Key)
		}
		if _, dup := keys[c.Key]; dup {
			return fmt.Errorf("duplicate crop key %q", c.Key)
		}
		keys[c.Key] = struct{}{}
	}
	for _, p := range t.MarketNames {
		if p.English == "" || p.Marathi == "" {
			return fmt.Errorf("market name pair %q/%q: both sides required", p.English, p.Marathi)
		}
	}
	return nil
}

// IsMaharashtra reports whether a state column value names Maharashtra under
// any of its known spellings.
func (t *CropTable) IsMaharashtra(state string) bool {
	lower := strings.ToLower(state)
	for _, v := range t.MaharashtraVariations {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

// TranslateMarket returns the Marathi name for a normalized market name, or
// the empty string when no pair matches. The first matching pair wins.
func (t *CropTable) TranslateMarket(normalized string) string {
	for _, p := range t.MarketNames {
		if strings.Contains(normalized, p.English) {
			return p.Marathi
		}
	}
	return ""
}

// NormalizeMarket lowers a market name and strips spaces and hyphens so it
// can be matched against the name pair table.
func NormalizeMarket(name string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.ToLower(name))
}
