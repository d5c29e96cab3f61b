package extract

import (
	"context"
	"regexp"
	"strings"
)

const pptxSlidePathPrefix = "ppt/slides/slide"

// atTag matches <a:t>text</a:t> with any attributes.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX returns the text of every <a:t> run across ppt/slides/slideN.xml.
func extractPPTX(ctx context.Context, content []byte) (string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", err
	}
	var c textCollector
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePathPrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		slide, err := readZipFile(f, "PPTX")
		if err != nil {
			return "", err
		}
		c.collect(atTag, string(slide))
	}
	return c.String(), nil
}
