// internal/extractor/extractor.go
package extractor

import (
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	maxAttrValueLen = 50
	maxTextLen      = 100
	siblingSep      = " | "
)

// allowedAttrs is the fixed, ordered attribute allow-list rendered after id
// and classes.
var allowedAttrs = []string{"src", "href", "type", "name", "value", "placeholder", "alt", "title"}

// voidElements never recurse into children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// skippedElements are removed entirely, content included.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
}

// ContentExtractor compresses page markup into a compact structural token
// stream small enough to embed in planning prompts.
type ContentExtractor struct {
	logger *zap.Logger
}

// New creates a ContentExtractor.
func New(logger *zap.Logger) *ContentExtractor {
	return &ContentExtractor{logger: logger.Named("content_extractor")}
}

// ExtractStructuredContent renders markup as nested tag tokens with id,
// class and allow-listed attribute shorthand. It never fails: markup the
// parser cannot handle is returned unchanged so the planning pipeline is
// never blocked on a malformed page.
func (e *ContentExtractor) ExtractStructuredContent(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return markup
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		e.logger.Warn("Failed to parse page markup, passing it through unmodified", zap.Error(err))
		return markup
	}

	var sb strings.Builder
	renderNode(&sb, doc)
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return markup
	}
	return out
}

func renderNode(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.DocumentNode:
		renderChildren(sb, n)
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		renderElement(sb, n)
	case html.TextNode:
		renderText(sb, n.Data)
	}
}

func renderElement(sb *strings.Builder, n *html.Node) {
	sb.WriteString(n.Data)
	renderAttrs(sb, n)

	if voidElements[n.Data] {
		return
	}

	// A single text-only child is inlined; anything richer gets wrapped.
	if child := n.FirstChild; child != nil && child.NextSibling == nil && child.Type == html.TextNode {
		text := strings.TrimSpace(child.Data)
		if text != "" {
			sb.WriteString("{")
			sb.WriteString(truncateText(text))
			sb.WriteString("}")
		}
		return
	}

	var parts []string
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		var childBuf strings.Builder
		renderNode(&childBuf, child)
		if s := strings.TrimSpace(childBuf.String()); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		sb.WriteString("{")
		sb.WriteString(strings.Join(parts, siblingSep))
		sb.WriteString("}")
	}
}

func renderChildren(sb *strings.Builder, n *html.Node) {
	var parts []string
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		var childBuf strings.Builder
		renderNode(&childBuf, child)
		if s := strings.TrimSpace(childBuf.String()); s != "" {
			parts = append(parts, s)
		}
	}
	sb.WriteString(strings.Join(parts, siblingSep))
}

func renderAttrs(sb *strings.Builder, n *html.Node) {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}

	if id := attrs["id"]; id != "" {
		sb.WriteString("#")
		sb.WriteString(id)
	}
	if class := attrs["class"]; class != "" {
		classes := strings.Fields(class)
		sort.Strings(classes)
		for _, c := range classes {
			sb.WriteString(".")
			sb.WriteString(c)
		}
	}
	for _, key := range allowedAttrs {
		val, ok := attrs[key]
		if !ok || val == "" {
			continue
		}
		if len(val) > maxAttrValueLen {
			val = val[:maxAttrValueLen] + "..."
		}
		sb.WriteString(`[` + key + `="` + val + `"]`)
	}
}

func renderText(sb *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	sb.WriteString(truncateText(text))
}

func truncateText(text string) string {
	// Collapse internal whitespace runs so markup indentation does not leak
	// into the token stream.
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxTextLen {
		runes := []rune(text)
		return string(runes[:maxTextLen]) + "..."
	}
	return text
}
