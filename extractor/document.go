package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a page prepared for extraction. Raw keeps the rendered line
// structure, Text is the same content with all whitespace runs collapsed.
type Document struct {
	Raw  string
	Text string
	dom  *goquery.Document
}

// NewDocument parses page HTML. bodyText is the browser-rendered body text;
// when empty it is derived from the HTML.
func NewDocument(htmlSrc, bodyText string) (*Document, error) {
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("extractor: parse html: %w", err)
	}
	if strings.TrimSpace(bodyText) == "" {
		body := dom.Find("body")
		if body.Length() == 0 {
			body = dom.Selection
		}
		for _, n := range body.Nodes {
			bodyText += InnerText(n)
		}
	}
	return &Document{Raw: bodyText, Text: Collapse(bodyText), dom: dom}, nil
}

// NewTextDocument wraps plain text such as a listing card. Structural
// lookups on it return nothing.
func NewTextDocument(text string) *Document {
	return &Document{Raw: text, Text: Collapse(text)}
}

// Texts returns the rendered text of every node matching selector.
func (d *Document) Texts(selector string) []string {
	if d.dom == nil {
		return nil
	}
	var out []string
	d.dom.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			out = append(out, InnerText(n))
		}
	})
	return out
}

// FirstText returns the trimmed text of the first node matching selector.
func (d *Document) FirstText(selector string) (string, bool) {
	if d.dom == nil {
		return "", false
	}
	sel := d.dom.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(InnerText(sel.Nodes[0]))
	return text, text != ""
}

// Collapse joins all whitespace-separated words with single spaces.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SplitLines splits on newlines and drops blank lines.
func SplitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
