// Package page mirrors the host's rendered content tree into a queryable
// document. The instrumentation marks every element it may reference later
// with a stable data-ft-node attribute; lookups by marker go through ByNode.
package page

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

const NodeAttr = "data-ft-node"

type Document struct {
	mu  sync.RWMutex
	doc *goquery.Document
}

func Parse(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// Replace swaps the whole mirror for a fresh snapshot. Elements resolved
// before the swap keep pointing at the detached tree; queries against them
// come up empty, which downstream code treats as subject-not-found.
func (d *Document) Replace(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc = doc
	return nil
}

// Find returns the first element matching selector, or nil.
func (d *Document) Find(selector string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return &Element{doc: d, sel: sel}
}

// FindAll returns every element matching selector.
func (d *Document) FindAll(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var els []*Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		els = append(els, &Element{doc: d, sel: s})
	})
	return els
}

// ByNode resolves an element by its stable node marker.
func (d *Document) ByNode(marker string) *Element {
	return d.Find(fmt.Sprintf("[%s=%q]", NodeAttr, marker))
}

// Append inserts html as new children of the element marked parent. An
// unknown parent is ignored: the next snapshot will carry the subtree anyway.
func (d *Document) Append(parent, html string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find(fmt.Sprintf("[%s=%q]", NodeAttr, parent)).First()
	if sel.Length() == 0 {
		return
	}
	sel.AppendHtml(html)
}

// SetAttr patches one attribute on the element marked with marker.
func (d *Document) SetAttr(marker, attr, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find(fmt.Sprintf("[%s=%q]", NodeAttr, marker)).First()
	if sel.Length() == 0 {
		return
	}
	sel.SetAttr(attr, value)
}
