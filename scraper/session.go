package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"mandi-scraper/config"
	"mandi-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const evalTimeout = 15 * time.Second

// challengeMarkers are fragments of the interstitial pages bot protection
// layers serve in place of real content.
var challengeMarkers = []string{
	"just a moment",
	"checking your browser",
	"verifying you are human",
	"cf-browser-verification",
	"attention required",
}

// Session owns one headless browser for the lifetime of a single source's
// extraction. It must be closed before the next source's session starts.
type Session struct {
	logger      *utils.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	closed      bool
}

// NewSession launches a browser configured to pass the sources' bot checks.
func NewSession(cfg *config.Config, logger *utils.Logger) (*Session, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	if chromeBin != "" {
		logger.Info("[session] Using browser binary: %s", chromeBin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so a broken environment fails the source up
	// front instead of mid-extraction.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("session: launch browser: %w", err)
	}

	return &Session{
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
	}, nil
}

// run executes actions on the session's tab, bounded by timeout when > 0.
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

// Navigate loads url and waits for the page's load event.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	if err := s.run(timeout, chromedp.Navigate(url)); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// WaitVisible blocks until the selector matches a visible node.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	return s.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// SelectOption sets a select control's value and fires its change event, the
// same way a user picking the option would.
func (s *Session) SelectOption(selector, value string) error {
	js := fmt.Sprintf(`(function() {
		var el = document.querySelector(%q);
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, selector, value)

	var ok bool
	if err := s.Eval(js, &ok); err != nil {
		return fmt.Errorf("select %s value %s: %w", selector, value, err)
	}
	if !ok {
		return fmt.Errorf("select %s value %s: control not found", selector, value)
	}
	return nil
}

// Eval runs a JavaScript expression on the page and unmarshals its result
// into out. Pass nil to discard the result.
func (s *Session) Eval(js string, out any) error {
	return s.run(evalTimeout, chromedp.Evaluate(js, out))
}

// HTML returns the rendered markup of the whole document.
func (s *Session) HTML() (string, error) {
	var html string
	if err := s.Eval(`document.documentElement.outerHTML`, &html); err != nil {
		return "", err
	}
	return html, nil
}

// Sleep pauses the session, giving in-page scripts time to settle.
func (s *Session) Sleep(d time.Duration) {
	_ = s.run(0, chromedp.Sleep(d))
}

// ClearChallenge waits out a timed bot check on the current page. settle is
// how long the challenge usually needs before re-checking starts.
func (s *Session) ClearChallenge(url string, settle time.Duration) error {
	s.logger.Info("[session] Waiting %s for bot check on %s", settle, url)
	s.Sleep(settle)

	poll := utils.PollConfig{Interval: 2 * time.Second, MaxAttempts: 5}
	err := poll.Until("bot check cleared", func() (bool, error) {
		html, err := s.HTML()
		if err != nil {
			return false, err
		}
		if marker := detectChallenge(html); marker != "" {
			s.logger.Debug("[session] Bot check still up (%q)", marker)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// Close releases the browser. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.cancelAlloc()
}

// detectChallenge returns the first challenge marker found in the page, or
// the empty string when the page looks like real content.
func detectChallenge(html string) string {
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return marker
		}
	}
	return ""
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
