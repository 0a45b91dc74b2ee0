package icons

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mattsolo1/grove-structview/pkg/metrics"
)

// DefaultBaseURL is where vscode-icons keeps its SVG artwork.
const DefaultBaseURL = "https://raw.githubusercontent.com/vscode-icons/vscode-icons/master/icons/"

const svgNamespace = `xmlns="http://www.w3.org/2000/svg"`

// URLFor returns the artwork URL of a vscode-icons key.
func URLFor(baseURL, key string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + "file_type_" + key + ".svg"
}

// Resolver turns file names into icon data URLs. Results are cached by
// extension in memory and, when a Store is configured, on disk.
type Resolver struct {
	baseURL string
	http    *http.Client
	store   *Store
	metrics *metrics.Collector
	log     *logrus.Entry
	max     int

	mu     sync.Mutex
	memory map[string]string
	order  []string
	flight singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(r *Resolver) { r.baseURL = u }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.http = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.http = &http.Client{Timeout: d} }
}

// WithStore adds a persistent cache.
func WithStore(s *Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithMetrics counts resolutions by result.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Resolver) { r.log = log }
}

// WithMaxEntries bounds the memory cache.
func WithMaxEntries(n int) Option {
	return func(r *Resolver) {
		if n <= 0 {
			n = DefaultMaxEntries
		}
		r.max = n
	}
}

// NewResolver creates a Resolver. Entries already in the store are loaded
// into memory.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		max:     DefaultMaxEntries,
		memory:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		r.log = logrus.NewEntry(logger)
	}
	r.log = r.log.WithField("component", "icons")

	if r.store != nil {
		entries, order, err := r.store.All()
		if err != nil {
			r.log.WithError(err).Warn("failed to read icon cache")
		}
		for _, ext := range order {
			r.remember(ext, entries[ext])
		}
	}
	return r
}

// Resolve returns a data URL with the artwork for name's extension. It
// returns "" with no error when the extension has no known artwork.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	ext := FileExtension(name)
	key, ok := KeyFor(ext)
	if !ok {
		r.metrics.RecordIcon(metrics.IconMissing)
		return "", nil
	}

	if dataURL, ok := r.cached(ext); ok {
		r.metrics.RecordIcon(metrics.IconMemory)
		return dataURL, nil
	}

	v, err, _ := r.flight.Do(ext, func() (interface{}, error) {
		if r.store != nil {
			dataURL, found, err := r.store.Get(ext)
			if err != nil {
				r.log.WithError(err).Warn("icon cache lookup failed")
			} else if found {
				r.remember(ext, dataURL)
				r.metrics.RecordIcon(metrics.IconStore)
				return dataURL, nil
			}
		}

		dataURL, err := r.fetch(ctx, key)
		if err != nil {
			r.metrics.RecordIcon(metrics.IconFailed)
			return "", err
		}
		r.metrics.RecordIcon(metrics.IconRemote)
		r.remember(ext, dataURL)
		if r.store != nil {
			if err := r.store.Put(ext, key, dataURL); err != nil {
				r.log.WithError(err).Warn("failed to persist icon")
			}
		}
		return dataURL, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Glyph returns the terminal marker for a file: its badge when the
// extension is known, the file emoji otherwise.
func (r *Resolver) Glyph(name string) string {
	if b := Badge(name); b != "" {
		return b
	}
	return FileEmoji
}

// Len returns the number of icons held in memory.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memory)
}

func (r *Resolver) cached(ext string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.memory[ext]
	return v, ok
}

// remember adds an entry, evicting the oldest beyond the bound.
func (r *Resolver) remember(ext, dataURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.memory[ext]; !ok {
		r.order = append(r.order, ext)
	}
	r.memory[ext] = dataURL
	for len(r.order) > r.max {
		delete(r.memory, r.order[0])
		r.order = r.order[1:]
	}
}

func (r *Resolver) fetch(ctx context.Context, key string) (string, error) {
	url := URLFor(r.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("icon fetch %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("icon fetch failed: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("icon fetch %s: %w", key, err)
	}

	r.log.WithFields(logrus.Fields{"key": key, "duration": time.Since(start)}).Debug("fetched icon")
	return SVGDataURL(string(body)), nil
}

// SVGDataURL encodes an SVG document as a data URL, adding the SVG
// namespace when the document lacks it.
func SVGDataURL(svg string) string {
	if !strings.Contains(svg, svgNamespace) {
		svg = strings.Replace(svg, "<svg", "<svg "+svgNamespace, 1)
	}
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
