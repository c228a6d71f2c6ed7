// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/config"
)

// elementSummaryJS collects the interactive elements a planner can act on.
// Selectors prefer ids, then name attributes, then an nth-of-type path so
// they stay usable across snapshots.
const elementSummaryJS = `(() => {
	const selectorFor = (el) => {
		if (el.id) return '#' + CSS.escape(el.id);
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		let path = el.tagName.toLowerCase();
		let nth = 1;
		let sib = el;
		while ((sib = sib.previousElementSibling)) {
			if (sib.tagName === el.tagName) nth++;
		}
		return path + ':nth-of-type(' + nth + ')';
	};
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	const out = [];
	document.querySelectorAll('a, button, input, select, textarea, [role="button"]').forEach((el) => {
		out.push({
			tag: el.tagName.toLowerCase(),
			selector: selectorFor(el),
			text: (el.innerText || el.value || '').trim().slice(0, 80),
			visible: visible(el),
		});
	});
	return out.slice(0, 200);
})()`

// chromedpSession drives one browser tab over the Chrome DevTools Protocol.
type chromedpSession struct {
	id      string
	tabCtx  context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	cfg     config.BrowserConfig
	onClose func()
}

// ID returns the unique session identifier.
func (s *chromedpSession) ID() string { return s.id }

// run executes chromedp actions against the session tab while honoring the
// caller's context. The tab context owns the target; the caller's context
// only gates this one call.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	s.logger.Debug("Navigating.", zap.String("session_id", s.id), zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

func (s *chromedpSession) Type(ctx context.Context, selector, text string) error {
	err := s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("typing into %q failed: %w", selector, err)
	}
	return nil
}

func (s *chromedpSession) Fill(ctx context.Context, selector, text string) error {
	if err := s.run(ctx, chromedp.SetValue(selector, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("filling %q failed: %w", selector, err)
	}
	return nil
}

func (s *chromedpSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %q failed: %w", selector, err)
	}
	return nil
}

func (s *chromedpSession) Scroll(ctx context.Context, direction string, amount int) error {
	script := fmt.Sprintf("window.scrollBy(0, %d)", amount)
	switch {
	case amount == 0 && direction == "up":
		script = "window.scrollBy(0, -window.innerHeight)"
	case amount == 0:
		script = "window.scrollBy(0, window.innerHeight)"
	case direction == "up":
		script = fmt.Sprintf("window.scrollBy(0, -%d)", amount)
	}
	if err := s.run(ctx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

func (s *chromedpSession) TakeScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

func (s *chromedpSession) ExtractData(ctx context.Context, selector string) (string, error) {
	if selector == "" {
		selector = "body"
	}
	var out string
	if err := s.run(ctx, chromedp.Text(selector, &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("extraction from %q failed: %w", selector, err)
	}
	return out, nil
}

func (s *chromedpSession) GetCurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading location failed: %w", err)
	}
	return url, nil
}

func (s *chromedpSession) GetPageTitle(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading title failed: %w", err)
	}
	return title, nil
}

func (s *chromedpSession) GetPageContent(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page content failed: %w", err)
	}
	return html, nil
}

// CapturePageState gathers location, title, markup, viewport and the
// interactive element summary in one round of CDP calls.
func (s *chromedpSession) CapturePageState(ctx context.Context) (*schemas.PageState, error) {
	var (
		url, title, html string
		elements         []schemas.ElementSummary
		viewport         schemas.Viewport
	)
	err := s.run(ctx,
		chromedp.Location(&url),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(elementSummaryJS, &elements),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, _, _, cssVisualViewport, _, err := page.GetLayoutMetrics().Do(ctx)
			if err != nil {
				return err
			}
			viewport = schemas.Viewport{
				Width:  int(cssVisualViewport.ClientWidth),
				Height: int(cssVisualViewport.ClientHeight),
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("page state capture failed: %w", err)
	}

	return &schemas.PageState{
		URL:        url,
		Title:      title,
		Content:    html,
		Viewport:   viewport,
		CapturedAt: time.Now().UTC(),
		Elements:   elements,
	}, nil
}

// Close tears the tab down and unregisters the session from its manager.
func (s *chromedpSession) Close(ctx context.Context) error {
	s.logger.Debug("Closing session.", zap.String("session_id", s.id))
	s.cancel()
	if s.onClose != nil {
		s.onClose()
		s.onClose = nil
	}
	return nil
}

func newChromedpSession(tabCtx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) *chromedpSession {
	return &chromedpSession{
		id:     uuid.NewString(),
		tabCtx: tabCtx,
		cancel: cancel,
		logger: logger,
		cfg:    cfg,
	}
}
