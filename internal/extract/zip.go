package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// openZip opens an in-memory OOXML/OpenDocument package. format names the
// document type in error messages.
func openZip(content []byte, format string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	return zr, nil
}

// readZipEntry returns the content of the named entry, or nil if the package has no such entry.
func readZipEntry(zr *zip.Reader, name, format string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		return readZipFile(f, format)
	}
	return nil, nil
}

func readZipFile(f *zip.File, format string) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("extract %s: open %s: %w", format, f.Name, err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("extract %s: read %s: %w", format, f.Name, err)
	}
	return buf.Bytes(), nil
}

// textCollector joins the inner text of regex matches with single spaces.
type textCollector struct {
	b strings.Builder
}

func (c *textCollector) collect(re *regexp.Regexp, xml string) {
	for _, m := range re.FindAllStringSubmatch(xml, -1) {
		if c.b.Len() > 0 {
			c.b.WriteByte(' ')
		}
		c.b.WriteString(strings.TrimSpace(m[1]))
	}
}

func (c *textCollector) String() string {
	return strings.TrimSpace(c.b.String())
}
