package msamb

import (
	"errors"
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
	source   = "msamb"
	priceURL = "https://www.msamb.com/ApmcDetail/APMCPriceInformation"

	dropdownSelector = "#drpCommodities"
	overlaySelector  = "#OdivCommodity"
	tableSelector    = "#tblCommodity"

	navTimeout      = 60 * time.Second
	dropdownTimeout = 15 * time.Second
	settleDelay     = 1500 * time.Millisecond
)

// renderPoll bounds how long a crop selection may take to fill the table.
var renderPoll = utils.PollConfig{Interval: 500 * time.Millisecond, MaxAttempts: 30}

var (
	tradeDateRe  = regexp.MustCompile(`\d{2}-\d{2}-\d{4}`)
	nonNumericRe = regexp.MustCompile(`[^\d.]`)
)

// Extractor reads Maharashtra market prices from the MSAMB price board. It
// is the primary source for the local partition.
type Extractor struct {
	logger *utils.Logger
	table  *config.CropTable
}

// New creates an MSAMB extractor over the given crop table.
func New(table *config.CropTable, logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger, table: table}
}

// Extract drives the commodity selector crop by crop and returns each crop's
// local partition, keyed by crop key. A crop that fails is logged and left
// out; only an unreachable board fails the whole source.
func (e *Extractor) Extract(session *scraper.Session) (map[string]models.Partition, error) {
	e.logger.Info("[msamb] Opening price board %s", priceURL)
	if err := session.Navigate(priceURL, navTimeout); err != nil {
		return nil, err
	}
	if err := session.WaitVisible(dropdownSelector, dropdownTimeout); err != nil {
		return nil, &scraper.NavigationError{
			URL: priceURL,
			Err: fmt.Errorf("commodity selector %s never appeared: %w", dropdownSelector, err),
		}
	}

	locals := make(map[string]models.Partition)
	for i, crop := range e.table.Crops {
		if !crop.OnMSAMB() {
			e.logger.Info("[msamb] (%d/%d) %s is not tracked here, skipping",
				i+1, len(e.table.Crops), crop.Key)
			continue
		}
		e.logger.Info("[msamb] (%d/%d) Extracting %s (%s)",
			i+1, len(e.table.Crops), crop.Marathi, crop.English)

		part, err := e.extractCrop(session, crop)
		if err != nil {
			e.logger.Error("[msamb] %s failed: %v", crop.Key, err)
			continue
		}
		locals[crop.Key] = part
		e.logger.Info("[msamb] %s: %d of %d target markets reported",
			crop.Key, len(part), len(e.table.LocalMarkets))
	}
	return locals, nil
}

// extractCrop selects one commodity, waits for the board to swap in its
// rows and parses them.
func (e *Extractor) extractCrop(session *scraper.Session, crop config.Crop) (models.Partition, error) {
	if err := session.SelectOption(dropdownSelector, crop.MSAMBValue); err != nil {
		return nil, err
	}

	// The board shows #OdivCommodity while it loads the selection's rows.
	overlayGone := fmt.Sprintf(`(function() {
		var el = document.querySelector(%q);
		return !el || el.getClientRects().length === 0;
	})()`, overlaySelector)
	err := renderPoll.Until("loading overlay gone", func() (bool, error) {
		var gone bool
		if err := session.Eval(overlayGone, &gone); err != nil {
			return false, err
		}
		return gone, nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrWaitTimeout) {
			return nil, &scraper.RenderTimeoutError{
				Source: source, Crop: crop.Key,
				Selector: overlaySelector, Waited: renderPoll.Total(),
			}
		}
		return nil, err
	}

	session.Sleep(settleDelay)

	rowCount := fmt.Sprintf(`document.querySelectorAll(%q).length`, tableSelector+" tr")
	err = renderPoll.Until("results table populated", func() (bool, error) {
		var rows int
		if err := session.Eval(rowCount, &rows); err != nil {
			return false, err
		}
		return rows > 0, nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrWaitTimeout) {
			return nil, &scraper.RenderTimeoutError{
				Source: source, Crop: crop.Key,
				Selector: tableSelector, Waited: renderPoll.Total(),
			}
		}
		return nil, err
	}

	html, err := session.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return e.parsePriceBoard(html, crop)
}

// parsePriceBoard walks the commodity table. Full-width rows carry the trade
// date for the market rows below them; seven-cell rows are market reports
// laid out as market, variety, grade, arrival, min, max, modal.
func (e *Extractor) parsePriceBoard(html string, crop config.Crop) (models.Partition, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	part := make(models.Partition)
	var tradeDate *string

	doc.Find("tbody" + tableSelector + " tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")

		if cells.Length() == 1 {
			if _, ok := cells.Attr("colspan"); ok {
				if m := tradeDateRe.FindString(cells.Text()); m != "" {
					tradeDate = &m
				}
			}
			return
		}
		if cells.Length() != 7 {
			e.logger.Debug("[msamb] %s: ignoring %d-cell row", crop.Key, cells.Length())
			return
		}

		market := strings.TrimSpace(cells.Eq(0).Text())
		if market == "" {
			e.logger.Warn("%v", &scraper.RowParseError{
				Source: source, Crop: crop.Key, Reason: "empty market name",
			})
			return
		}

		modal := parsePrice(cells.Eq(6).Text())
		if modal == nil || *modal <= 0 {
			e.logger.Debug("[msamb] %s: %s reported no modal price", crop.Key, market)
			return
		}

		// Sub-markets like "पुणे -मांजरी" match their parent by
		// containment; the first matching target wins and repeats of a
		// target are ignored.
		for _, target := range e.table.LocalMarkets {
			if !strings.Contains(market, target) {
				continue
			}
			if _, exists := part[target]; !exists {
				part[target] = models.MarketQuote{
					ModalPrice: *modal,
					MinPrice:   parsePrice(cells.Eq(4).Text()),
					MaxPrice:   parsePrice(cells.Eq(5).Text()),
					Arrival:    parsePrice(cells.Eq(3).Text()),
					Variety:    optText(cells.Eq(1).Text()),
					TradeDate:  tradeDate,
				}
				e.logger.Info("[msamb] %s: %s modal ₹%d", crop.Key, target, *modal)
			}
			break
		}
	})

	return part, nil
}

// parsePrice strips currency symbols, separators and whitespace from a price
// cell. It returns nil when nothing numeric remains, so absent readings stay
// absent instead of turning into zeros.
func parsePrice(text string) *int {
	cleaned := nonNumericRe.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	n := int(f)
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
