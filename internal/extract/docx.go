package extract

import (
	"archive/zip"
	"context"
	"regexp"
	"strings"
)

const (
	docxDefaultDocumentPath = "word/document.xml"
	contentTypesPath        = "[Content_Types].xml"
	docxMainContentType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// wtTag matches <w:t>text</w:t> with any attributes.
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// docxPartName finds the main document part in [Content_Types].xml; the two
	// patterns cover both attribute orders.
	docxPartName = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`),
	}
)

// docxMainDocumentPath returns the main document part named in [Content_Types].xml,
// falling back to word/document.xml.
func docxMainDocumentPath(zr *zip.Reader) string {
	types, err := readZipEntry(zr, contentTypesPath, "DOCX")
	if err != nil || types == nil {
		return docxDefaultDocumentPath
	}
	for _, re := range docxPartName {
		if m := re.FindSubmatch(types); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultDocumentPath
}

// extractDOCX returns the text of every <w:t> run in the main document part.
// Paragraph attributes are ignored so documents with rsid attributes still yield text.
func extractDOCX(ctx context.Context, content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	docPath := docxMainDocumentPath(zr)
	docXML, err := readZipEntry(zr, docPath, "DOCX")
	if err != nil {
		return "", err
	}
	if docXML == nil {
		return "", errEntryNotFound("DOCX", docPath)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var c textCollector
	c.collect(wtTag, string(docXML))
	return c.String(), nil
}
