package extract

import (
	"context"
	"fmt"
	"regexp"
)

// odfContentPath is the main content part of every OpenDocument package.
const odfContentPath = "content.xml"

var (
	odfTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odfTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odfTextH    = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)
)

// extractODP returns paragraph, span and heading text from an OpenDocument presentation.
func extractODP(ctx context.Context, content []byte) (string, error) {
	return extractOpenDocument(ctx, content, "ODP", odfTextP, odfTextSpan, odfTextH)
}

// extractODS returns paragraph and span text from an OpenDocument spreadsheet.
func extractODS(ctx context.Context, content []byte) (string, error) {
	return extractOpenDocument(ctx, content, "ODS", odfTextP, odfTextSpan)
}

// extractOpenDocument reads content.xml and collects matches of each pattern in turn.
func extractOpenDocument(ctx context.Context, content []byte, format string, patterns ...*regexp.Regexp) (string, error) {
	zr, err := openZip(content, format)
	if err != nil {
		return "", err
	}
	xml, err := readZipEntry(zr, odfContentPath, format)
	if err != nil {
		return "", err
	}
	if xml == nil {
		return "", errEntryNotFound(format, odfContentPath)
	}
	var c textCollector
	s := string(xml)
	for _, re := range patterns {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c.collect(re, s)
	}
	return c.String(), nil
}

func errEntryNotFound(format, name string) error {
	return fmt.Errorf("extract %s: %s not found", format, name)
}
