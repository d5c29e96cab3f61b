// Package fetch downloads source documents over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hyperjump/ingestd/internal/config"
	"github.com/hyperjump/ingestd/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultExt is the extension hint used when the URL gives no known media type.
const DefaultExt = ".pdf"

// documentTypes are registered with the mime package so the extension hint does
// not depend on the host's mime.types file.
var documentTypes = map[string]string{
	".docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":   "application/vnd.oasis.opendocument.text",
	".ods":   "application/vnd.oasis.opendocument.spreadsheet",
	".odp":   "application/vnd.oasis.opendocument.presentation",
	".rtf":   "application/rtf",
	".txt":   "text/plain",
	".md":    "text/markdown",
	".rst":   "text/x-rst",
	".xhtml": "application/xhtml+xml",
}

// extractable lists the extensions the extractor has a dedicated reader for.
var extractable = map[string]bool{
	".pdf": true, ".docx": true, ".xlsx": true, ".pptx": true,
	".odt": true, ".ods": true, ".odp": true, ".rtf": true,
	".html": true, ".htm": true, ".xhtml": true,
	".txt": true, ".md": true, ".rst": true,
}

func init() {
	for ext, typ := range documentTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			panic(err)
		}
	}
}

// ErrInvalidURL is returned for URLs that are not absolute http or https.
var ErrInvalidURL = errors.New("invalid document URL")

// Fetcher performs single-attempt GET requests with a size cap and an
// optional global rate limit.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxBytes  int64
	userAgent string
	logger    *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithHTTPClient replaces the HTTP client. The client's own timeout is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a fetcher from cfg. A zero rate limit disables limiting.
func New(cfg config.FetchConfig, opts ...Option) *Fetcher {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	f := &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseURL trims rawURL and checks that it is an absolute http or https URL.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

// Fetch downloads rawURL. Network errors, non-2xx statuses and bodies larger
// than the configured maximum are returned as errors; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.Payload, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d %s for url: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), u.String())
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.maxBytes)
	}

	f.logger.Debug("fetched document",
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))

	return &models.Payload{
		URL:         u.String(),
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Ext:         DetectExt(u, resp.Header.Get("Content-Type"), data),
	}, nil
}

// ExtHint guesses the file extension from the URL path. The path's own
// extension is used only when it maps to a known media type; otherwise the
// hint is DefaultExt.
func ExtHint(u *url.URL) string {
	if ext, ok := urlExt(u); ok {
		return ext
	}
	return DefaultExt
}

// DetectExt picks the extension hint for a downloaded document. A known
// extension in the URL path wins. Otherwise the body is sniffed, then the
// Content-Type header is consulted, and DefaultExt is the last resort.
func DetectExt(u *url.URL, contentType string, data []byte) string {
	if ext, ok := urlExt(u); ok {
		return ext
	}
	// Walk up from the most specific match, e.g. text/xml falls back to text/plain.
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if ext := m.Extension(); extractable[ext] {
			return ext
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		exts, _ := mime.ExtensionsByType(mediaType)
		for _, ext := range exts {
			if extractable[ext] {
				return ext
			}
		}
	}
	return DefaultExt
}

func urlExt(u *url.URL) (string, bool) {
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || mime.TypeByExtension(ext) == "" {
		return "", false
	}
	return ext, true
}
