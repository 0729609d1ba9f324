// Package loader fetches model documents from files, fs.FS entries and URLs.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/goliatone/go-formset/pkg/source"
)

type fetchFunc func(ctx context.Context, location string) ([]byte, error)

// Loader implements source.Loader with one fetcher per source kind.
// Construction helpers live in the top-level formset package.
type Loader struct {
	fetchers map[source.Kind]fetchFunc
	maxBytes int64
}

var _ source.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options. URL sources are only
// served when a client is configured or the HTTP fallback is enabled.
func New(options source.LoaderOptions) *Loader {
	l := &Loader{maxBytes: options.MaxBytes}
	if l.maxBytes <= 0 {
		l.maxBytes = source.DefaultMaxBytes
	}
	l.fetchers = map[source.Kind]fetchFunc{
		source.KindFile: l.fetchFile,
	}
	if options.FileSystem != nil {
		files := options.FileSystem
		l.fetchers[source.KindFS] = func(ctx context.Context, name string) ([]byte, error) {
			return l.fetchFS(ctx, files, name)
		}
	}
	if client := httpClient(options); client != nil {
		l.fetchers[source.KindURL] = func(ctx context.Context, url string) ([]byte, error) {
			return l.fetchURL(ctx, client, url, options.RequestTimeout)
		}
	}
	return l
}

func httpClient(options source.LoaderOptions) *http.Client {
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if options.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		return &clone
	case options.AllowHTTPFallback:
		return &http.Client{Timeout: options.RequestTimeout}
	default:
		return nil
	}
}

// Load fetches a document from src and wraps it in a Document.
func (l *Loader) Load(ctx context.Context, src source.Source) (source.Document, error) {
	if src == nil {
		return source.Document{}, errors.New("loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return source.Document{}, err
	}
	if src.Location() == "" {
		return source.Document{}, fmt.Errorf("loader: %s location is required", src.Kind())
	}
	fetch, ok := l.fetchers[src.Kind()]
	if !ok {
		return source.Document{}, unavailable(src.Kind())
	}
	data, err := fetch(ctx, src.Location())
	if err != nil {
		return source.Document{}, err
	}
	return source.NewDocument(src, data)
}

func unavailable(kind source.Kind) error {
	switch kind {
	case source.KindFS:
		return errors.New("loader: filesystem is not configured")
	case source.KindURL:
		return errors.New("loader: http support disabled")
	default:
		return fmt.Errorf("loader: unsupported source kind %q", kind)
	}
}

func (l *Loader) fetchFile(_ context.Context, path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer file.Close()
	return l.readLimited(file, path)
}

func (l *Loader) fetchFS(_ context.Context, files fs.FS, name string) ([]byte, error) {
	file, err := files.Open(name)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", name, err)
	}
	defer file.Close()
	return l.readLimited(file, name)
}

func (l *Loader) fetchURL(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: request %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("loader: fetch %s: unexpected status %s", url, resp.Status)
	}
	return l.readLimited(resp.Body, url)
}

func (l *Loader) readLimited(r io.Reader, location string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", location, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", source.ErrDocumentTooLarge, location, l.maxBytes)
	}
	return data, nil
}
