// internal/browser/interface.go
package browser

import (
	"context"
	"time"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// Session defines the contract for a single browser page the engine drives.
// The engine depends only on this interface, allowing for mocking during
// tests. All methods honor context cancellation.
type Session interface {
	// ID returns the unique session identifier.
	ID() string

	// Navigate loads the given URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Click clicks the first element matching the CSS selector.
	Click(ctx context.Context, selector string) error

	// Type sends text into the element matching the selector, key by key.
	Type(ctx context.Context, selector, text string) error

	// Fill sets the value of the element matching the selector directly.
	Fill(ctx context.Context, selector, text string) error

	// WaitForElement blocks until the element matching the selector is
	// visible, or the timeout elapses.
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) error

	// Scroll moves the viewport. direction is "up" or "down"; amount is in
	// pixels, with 0 meaning one viewport height.
	Scroll(ctx context.Context, direction string, amount int) error

	// TakeScreenshot captures the current viewport as PNG bytes.
	TakeScreenshot(ctx context.Context) ([]byte, error)

	// ExtractData reads text content from the page, optionally scoped to the
	// element matching the selector. An empty selector extracts the whole
	// document body.
	ExtractData(ctx context.Context, selector string) (string, error)

	// GetCurrentURL returns the page's current location.
	GetCurrentURL(ctx context.Context) (string, error)

	// GetPageTitle returns the document title.
	GetPageTitle(ctx context.Context) (string, error)

	// GetPageContent returns the serialized outer HTML of the document.
	GetPageContent(ctx context.Context) (string, error)

	// CapturePageState produces an immutable snapshot of the page: URL,
	// title, markup and a summary of interactive elements.
	CapturePageState(ctx context.Context) (*schemas.PageState, error)

	// Close releases the underlying browser tab.
	Close(ctx context.Context) error
}
