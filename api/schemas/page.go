package schemas

import "time"

// -- Page Schemas --

// Viewport is the visible page area in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ElementSummary is a compact description of one interactive element,
// produced when a page snapshot is captured.
type ElementSummary struct {
	Tag      string `json:"tag"`
	Selector string `json:"selector"`
	Text     string `json:"text,omitempty"`
	Visible  bool   `json:"visible"`
}

// PageState is an immutable snapshot of a page at a point in time. The
// browser adapter recreates it on demand; nothing in the planning core
// mutates one after capture.
type PageState struct {
	URL        string           `json:"url"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Screenshot []byte           `json:"screenshot,omitempty"`
	Viewport   Viewport         `json:"viewport"`
	CapturedAt time.Time        `json:"captured_at"`
	Elements   []ElementSummary `json:"elements,omitempty"`
}
