package scraper

import (
	"fmt"
	"time"
)

// NavigationError reports a page that could not be reached or never got past
// its bot protection. Callers treat it as fatal for the source being scraped.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// RenderTimeoutError reports a results table that never appeared for a crop.
// It fails only that crop, never the run.
type RenderTimeoutError struct {
	Source   string
	Crop     string
	Selector string
	Waited   time.Duration
}

func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("%s: table %s for crop %s did not render within %s",
		e.Source, e.Selector, e.Crop, e.Waited)
}

// RowParseError reports a single malformed table row. The row is dropped and
// extraction continues.
type RowParseError struct {
	Source string
	Crop   string
	Reason string
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("%s: dropped row for crop %s: %s", e.Source, e.Crop, e.Reason)
}
