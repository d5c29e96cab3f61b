package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlBlockSelector lists elements that end a paragraph in rendered text.
const htmlBlockSelector = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, blockquote, pre"

// extractHTML returns the visible text of an HTML page, prefixed by its title.
// Block elements are separated by blank lines so the chunker can split on them.
func extractHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(htmlBlockSelector).AppendHtml("\n\n")

	title := strings.TrimSpace(doc.Find("head title").First().Text())
	body := doc.Find("body")
	var text string
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}
	if title != "" {
		text = title + "\n\n" + text
	}
	return text, nil
}
