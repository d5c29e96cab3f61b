package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// zipOf builds an in-memory zip with the given entries in order.
func zipOf(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e[0])
		if err != nil {
			t.Fatalf("create %s: %v", e[0], err)
		}
		if _, err := fw.Write([]byte(e[1])); err != nil {
			t.Fatalf("write %s: %v", e[0], err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func docxBody(text string) string {
	return `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p></w:body></w:document>`
}

func slideBody(text string) string {
	return `<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestExtractBytes_plain(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ext     string
		want    string
	}{
		{"txt", "Hello world\nLine 2", ".txt", "Hello world\nLine 2"},
		{"utf8", "caf\xc3\xa9", ".md", "café"},
		{"invalid utf8", "hello\x80world", ".rst", "hello\uFFFDworld"},
		{"bom", "\xef\xbb\xbfbody", ".txt", "body"},
		{"unknown extension", "raw content", ".xyz", "raw content"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(context.Background(), []byte(tt.content), tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_zipFormats(t *testing.T) {
	contentTypes := func(attrs string) string {
		return `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override ` + attrs + `/></Types>`
	}
	const mainType = `ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"`

	tests := []struct {
		name    string
		ext     string
		content []byte
		want    string
	}{
		{
			name:    "docx",
			ext:     ".docx",
			content: zipOf(t, [2]string{"word/document.xml", docxBody("Searchable docx content")}),
			want:    "Searchable docx content",
		},
		{
			name: "docx custom main part",
			ext:  ".docx",
			content: zipOf(t,
				[2]string{"[Content_Types].xml", contentTypes(`PartName="/word/document2.xml" ` + mainType)},
				[2]string{"word/document2.xml", docxBody("Content from document2")},
			),
			want: "Content from document2",
		},
		{
			name: "docx reversed attributes",
			ext:  ".docx",
			content: zipOf(t,
				[2]string{"[Content_Types].xml", contentTypes(mainType + ` PartName="/word/document3.xml"`)},
				[2]string{"word/document3.xml", docxBody("Reversed order test")},
			),
			want: "Reversed order test",
		},
		{
			name: "pptx slides",
			ext:  ".pptx",
			content: zipOf(t,
				[2]string{"ppt/slides/slide1.xml", slideBody("First slide")},
				[2]string{"ppt/slides/slide2.xml", slideBody("Second slide")},
			),
			want: "First slide Second slide",
		},
		{
			name:    "pptx without slides",
			ext:     ".pptx",
			content: zipOf(t, [2]string{"ppt/slides/other.xml", ""}, [2]string{"docProps/core.xml", ""}),
			want:    "",
		},
		{
			name:    "odp heading after body",
			ext:     ".odp",
			content: zipOf(t, [2]string{"content.xml", `<office:body><draw:page><text:h>Slide title</text:h><text:p>Body text</text:p></draw:page></office:body>`}),
			want:    "Body text Slide title",
		},
		{
			name:    "ods cells",
			ext:     ".ods",
			content: zipOf(t, [2]string{"content.xml", `<table:table-row><table:table-cell><text:p>Cell A</text:p></table:table-cell><table:table-cell><text:span>Cell B</text:span></table:table-cell></table:table-row>`}),
			want:    "Cell A Cell B",
		},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(context.Background(), tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_zipErrors(t *testing.T) {
	missing := zipOf(t, [2]string{"other.xml", ""})
	tests := []struct {
		name    string
		ext     string
		content []byte
	}{
		{"pptx not zip", ".pptx", []byte("not a zip")},
		{"docx not zip", ".docx", []byte("not a zip")},
		{"docx missing document", ".docx", missing},
		{"odp missing content", ".odp", missing},
		{"ods missing content", ".ods", missing},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.ExtractBytes(context.Background(), tt.content, tt.ext); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(context.Background(), buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_html(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Policy</title><style>p { color: red; }</style></head>
<body><h1>Coverage</h1><p>Hospital   stays are covered.</p><script>var tracking = 1;</script><p>Dental is excluded.</p></body></html>`

	got, err := NewExtractor().ExtractBytes(context.Background(), []byte(page), ".html")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	for _, want := range []string{"Policy", "Coverage", "Hospital", "Dental is excluded."} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	for _, unwanted := range []string{"tracking", "color: red"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("unexpected %q in %q", unwanted, got)
		}
	}
	if strings.Contains(got, "covered.Dental") {
		t.Errorf("paragraphs were joined: %q", got)
	}
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("  File \t content\r\n\r\n\r\n\r\nnext  "), 0600); err != nil {
		t.Fatal(err)
	}
	pptx := filepath.Join(dir, "deck.pptx")
	if err := os.WriteFile(pptx, zipOf(t, [2]string{"ppt/slides/slide1.xml", slideBody("Searchable from file")}), 0600); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(dir, "data.XLSX")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(xlsx); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	tests := []struct {
		path string
		want string
	}{
		{txt, "File content\n\nnext"},
		{pptx, "Searchable from file"},
		{xlsx, "Searchable text"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			got, err := e.Extract(context.Background(), tt.path)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_nonexistent(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "/nonexistent/path/file.txt")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtract_canceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Either branch of the select may win for a tiny file; a canceled context
	// must never yield a different error.
	_, err := NewExtractor().Extract(ctx, path)
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want nil or context.Canceled", err)
	}

	// Slide extraction checks the context before each slide.
	content := zipOf(t, [2]string{"ppt/slides/slide1.xml", slideBody("x")})
	if _, err := NewExtractor().ExtractBytes(ctx, content, ".pptx"); !errors.Is(err, context.Canceled) {
		t.Fatalf("ExtractBytes: got %v, want context.Canceled", err)
	}
}

func TestExtractBytes_canceledStopsParsing(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	var xlsx bytes.Buffer
	if _, err := f.WriteTo(&xlsx); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	odf := `<office:document-content><text:p>Paragraph</text:p></office:document-content>`

	tests := []struct {
		name    string
		ext     string
		content []byte
	}{
		{"docx", ".docx", zipOf(t, [2]string{"word/document.xml", docxBody("text")})},
		{"ods", ".ods", zipOf(t, [2]string{"content.xml", odf})},
		{"odp", ".odp", zipOf(t, [2]string{"content.xml", odf})},
		{"xlsx", ".xlsx", xlsx.Bytes()},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewExtractor().ExtractBytes(ctx, tt.content, tt.ext); !errors.Is(err, context.Canceled) {
				t.Errorf("got %v, want context.Canceled", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\r\n \n", ""},
		{"collapse spaces", "a  \t b", "a b"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"trailing line spaces", "a   \nb", "a\nb"},
		{"leading line spaces", "a\n   b", "a\nb"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"nbsp", "a\u00a0\u00a0b", "a b"},
		{"trim", "\n\n  text  \n", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
