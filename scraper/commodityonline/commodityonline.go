package commodityonline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mandi-scraper/config"
	"mandi-scraper/models"
	"mandi-scraper/scraper"
	"mandi-scraper/utils"
)

const (
	source        = "commodityonline"
	homeURL       = "https://www.commodityonline.com/"
	cropURLFormat = "https://www.commodityonline.com/mandiprices/%s"

	navTimeout      = 60 * time.Second
	challengeSettle = 6 * time.Second
	pageSettle      = time.Second
)

var priceRe = regexp.MustCompile(`[\d][\d,]*`)

// Extractor reads the national mandi price portal. It supplies the outstate
// partition for every crop, fills local target markets the primary source
// missed, and is the only local source for crops the primary board does not
// carry.
type Extractor struct {
	logger *utils.Logger
	table  *config.CropTable
}

// Result carries the quotes collected from the portal, split by the
// partition each row belongs to and keyed by crop key.
type Result struct {
	Local    map[string]models.Partition
	Outstate map[string]models.Partition
}

// New creates a portal extractor over the given crop table.
func New(table *config.CropTable, logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger, table: table}
}

// Extract opens the portal, clears its bot check once, then visits each
// crop's price page. local holds the per-crop partitions the primary source
// produced; it decides which target markets may still be filled from here.
// A crop page that fails is logged and skipped; only failing to get past
// the portal's front door fails the whole source.
func (e *Extractor) Extract(session *scraper.Session, local map[string]models.Partition) (Result, error) {
	res := Result{
		Local:    make(map[string]models.Partition),
		Outstate: make(map[string]models.Partition),
	}

	e.logger.Info("[commodityonline] Warming up %s", homeURL)
	if err := session.Navigate(homeURL, navTimeout); err != nil {
		return res, err
	}
	if err := session.ClearChallenge(homeURL, challengeSettle); err != nil {
		return res, err
	}

	for i, crop := range e.table.Crops {
		e.logger.Info("[commodityonline] (%d/%d) Extracting %s (%s)",
			i+1, len(e.table.Crops), crop.Marathi, crop.English)

		var missing []string
		if crop.OnMSAMB() {
			missing = missingTargets(e.table.LocalMarkets, local[crop.Key])
			if len(missing) > 0 {
				e.logger.Info("[commodityonline] %s: %d target markets still missing",
					crop.Key, len(missing))
			}
		}

		pageURL := fmt.Sprintf(cropURLFormat, crop.Slug)
		if err := session.Navigate(pageURL, navTimeout); err != nil {
			e.logger.Error("[commodityonline] %s failed: %v", crop.Key, err)
			continue
		}
		session.Sleep(pageSettle)

		html, err := session.HTML()
		if err != nil {
			e.logger.Error("[commodityonline] %s: read page: %v", crop.Key, err)
			continue
		}

		localPart, outstatePart, err := e.parseMandiTable(html, crop, missing)
		if err != nil {
			e.logger.Error("[commodityonline] %s: %v", crop.Key, err)
			continue
		}
		if len(localPart) > 0 {
			res.Local[crop.Key] = localPart
		}
		if len(outstatePart) > 0 {
			res.Outstate[crop.Key] = outstatePart
		}
		e.logger.Info("[commodityonline] %s: %d local fills, %d outstate markets",
			crop.Key, len(localPart), len(outstatePart))
	}

	return res, nil
}

// parseMandiTable walks the portal's price table. Rows are laid out as
// commodity, arrival date, variety, state, district, market, min, max,
// modal. Each market is handled at most once per crop page.
func (e *Extractor) parseMandiTable(html string, crop config.Crop, missing []string) (models.Partition, models.Partition, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}

	local := make(models.Partition)
	outstate := make(models.Partition)

	rows := doc.Find("table tbody tr")
	if rows.Length() == 0 {
		e.logger.Warn("[commodityonline] %s: no price table on page", crop.Key)
		return local, outstate, nil
	}
	e.logger.Debug("[commodityonline] %s: %d rows to check", crop.Key, rows.Length())

	seen := utils.NewSeenSet()
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 9 {
			return
		}

		state := strings.TrimSpace(cells.Eq(3).Text())
		market := strings.TrimSpace(cells.Eq(5).Text())
		variety := cells.Eq(2).Text()
		price := extractPrice(cells.Eq(8).Text())

		if market == "" || state == "" {
			e.logger.Warn("%v", &scraper.RowParseError{
				Source: source, Crop: crop.Key, Reason: "blank state or market cell",
			})
			return
		}
		if price == nil || *price <= 0 {
			e.logger.Debug("[commodityonline] %s: %s has no usable price", crop.Key, market)
			return
		}
		if seen.Contains(market) {
			return
		}

		stateLower := strings.ToLower(state)
		normalized := config.NormalizeMarket(market)
		quote := models.MarketQuote{ModalPrice: *price, Variety: optText(variety)}

		// Crops the primary board does not carry take their whole local
		// partition from this page.
		if !crop.OnMSAMB() {
			seen.Add(market)
			if strings.Contains(stateLower, "maharashtra") {
				name := e.table.TranslateMarket(normalized)
				if name == "" {
					name = market
				}
				local[name] = quote
				e.logger.Info("[commodityonline] %s: %s (MH) ₹%d", crop.Key, name, *price)
			} else {
				outstate[market] = quote
				e.logger.Info("[commodityonline] %s: %s ₹%d", crop.Key, market, *price)
			}
			return
		}

		// Maharashtra rows may only fill target markets the primary
		// source missed; every other row from the state is dropped so
		// the two sources never report the same market.
		if strings.Contains(stateLower, "maharashtra") && len(missing) > 0 {
			if matched := matchMissing(normalized, missing, e.table.MarketNames); matched != "" {
				local[matched] = quote
				missing = removeMarket(missing, matched)
				seen.Add(market)
				e.logger.Info("[commodityonline] %s: %s filled from fallback ₹%d",
					crop.Key, matched, *price)
			}
			return
		}
		if e.table.IsMaharashtra(state) {
			return
		}

		outstate[market] = quote
		seen.Add(market)
		e.logger.Info("[commodityonline] %s: %s (%s) ₹%d", crop.Key, market, state, *price)
	})

	return local, outstate, nil
}

// missingTargets lists the configured target markets the primary source did
// not report for this crop.
func missingTargets(targets []string, got models.Partition) []string {
	missing := make([]string, 0, len(targets))
	for _, m := range targets {
		if _, ok := got[m]; !ok {
			missing = append(missing, m)
		}
	}
	return missing
}

// matchMissing finds the first missing target market whose translation pair
// matches the normalized portal market name.
func matchMissing(normalized string, missing []string, pairs []config.NamePair) string {
	for _, want := range missing {
		for _, p := range pairs {
			if strings.Contains(normalized, p.English) && p.Marathi == want {
				return want
			}
		}
	}
	return ""
}

func removeMarket(markets []string, name string) []string {
	out := make([]string, 0, len(markets))
	for _, m := range markets {
		if m != name {
			out = append(out, m)
		}
	}
	return out
}

// extractPrice pulls the first number out of a price cell like
// "₹ 2,100 / Quintal". Returns nil when the cell has no number.
func extractPrice(text string) *int {
	m := priceRe.FindString(text)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

// optText trims a cell and returns nil for blank content.
func optText(text string) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
