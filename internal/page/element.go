package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type Element struct {
	doc *Document
	sel *goquery.Selection
}

// Closest walks up from the element looking for a match, like the host's
// closest(). Returns nil when no ancestor (or the element itself) matches.
func (e *Element) Closest(selector string) *Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	sel := e.sel.Closest(selector)
	if sel.Length() == 0 {
		return nil
	}
	return &Element{doc: e.doc, sel: sel}
}

// Find returns the first descendant matching selector, or nil.
func (e *Element) Find(selector string) *Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	sel := e.sel.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return &Element{doc: e.doc, sel: sel}
}

func (e *Element) Is(selector string) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.sel.Is(selector)
}

// Attr returns the attribute value, empty string when absent.
func (e *Element) Attr(name string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.sel.AttrOr(name, "")
}

// Text is the concatenated text content, trimmed.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return strings.TrimSpace(e.sel.Text())
}

// InnerText renders the text content line-aware: <br> and boundaries between
// block-level children become newlines. The author block contract (name on
// line one, handle on line two) depends on this.
func (e *Element) InnerText() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	var b strings.Builder
	for _, n := range e.sel.Nodes {
		writeText(n, &b)
	}
	return strings.TrimSpace(b.String())
}

var blockTags = map[string]bool{
	"div": true, "p": true, "li": true, "tr": true, "section": true, "article": true,
}

func writeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
		}
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
		if blockTags[n.Data] && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	default:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, b)
	}
}
