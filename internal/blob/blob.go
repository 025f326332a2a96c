package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrEmptyBlob    = errors.New("blob has no content")
	ErrInvalidURL   = errors.New("blob url is invalid")
	ErrFetchFailed  = errors.New("failed to fetch blob")
	ErrUnsupported  = errors.New("unsupported image format")
	ErrReadFile     = errors.New("failed to read file")
	defaultFetchCli = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
)

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percentage int)

// Blob is a reference to binary image data held by the backend's storage.
// It is implemented only by *Bytes (local content not yet uploaded) and
// *Remote (content already addressable by URL).
type Blob interface {
	// Bytes returns the full content of the blob.
	Bytes(ctx context.Context) ([]byte, error)
	// DirectURL returns a URL a browser can load the image from.
	DirectURL() (string, error)
	// WithUploadProgress returns a copy of the blob that reports upload
	// progress to fn when a transport sends it.
	WithUploadProgress(fn ProgressFunc) Blob
	// Progress returns the attached progress callback, or nil.
	Progress() ProgressFunc

	sealed()
}

var (
	_ Blob = (*Bytes)(nil)
	_ Blob = (*Remote)(nil)
)

// Bytes is a blob whose content lives in memory.
type Bytes struct {
	data     []byte
	progress ProgressFunc
}

// FromBytes creates a blob from a copy of data.
func FromBytes(data []byte) *Bytes {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Bytes{data: cp}
}

func (b *Bytes) Bytes(ctx context.Context) ([]byte, error) {
	if b == nil {
		return nil, ErrEmptyBlob
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return cp, nil
}

// Len returns the content size in bytes.
func (b *Bytes) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Reader returns a reader over the content.
func (b *Bytes) Reader() io.Reader {
	if b == nil {
		return bytes.NewReader(nil)
	}
	return bytes.NewReader(b.data)
}

// DirectURL renders the content as a data URL with a sniffed media type.
func (b *Bytes) DirectURL() (string, error) {
	if b == nil || len(b.data) == 0 {
		return "", ErrEmptyBlob
	}
	return "data:" + MediaType(b.data) + ";base64," + base64.StdEncoding.EncodeToString(b.data), nil
}

func (b *Bytes) WithUploadProgress(fn ProgressFunc) Blob {
	if b == nil {
		return b
	}
	return &Bytes{data: b.data, progress: fn}
}

func (b *Bytes) Progress() ProgressFunc {
	if b == nil {
		return nil
	}
	return b.progress
}

func (*Bytes) sealed() {}

// Remote is a blob already stored by the backend and addressable by URL.
type Remote struct {
	url      string
	client   *http.Client
	progress ProgressFunc
}

// FromURL creates a reference to content served at rawURL.
func FromURL(rawURL string) *Remote {
	return &Remote{url: rawURL}
}

// FromURLWithClient is FromURL with a custom HTTP client for Bytes.
func FromURLWithClient(rawURL string, client *http.Client) *Remote {
	return &Remote{url: rawURL, client: client}
}

// URL returns the raw stored reference without validation.
func (r *Remote) URL() string {
	if r == nil {
		return ""
	}
	return r.url
}

func (r *Remote) DirectURL() (string, error) {
	if r == nil || r.url == "" {
		return "", ErrInvalidURL
	}
	if _, err := url.Parse(r.url); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	return r.url, nil
}

// Bytes downloads the referenced content.
func (r *Remote) Bytes(ctx context.Context) ([]byte, error) {
	u, err := r.DirectURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	client := r.client
	if client == nil {
		client = defaultFetchCli
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return data, nil
}

// WithUploadProgress attaches fn. A remote blob is never re-uploaded, so
// transports report 100 for it immediately.
func (r *Remote) WithUploadProgress(fn ProgressFunc) Blob {
	if r == nil {
		return r
	}
	return &Remote{url: r.url, client: r.client, progress: fn}
}

func (r *Remote) Progress() ProgressFunc {
	if r == nil {
		return nil
	}
	return r.progress
}

func (*Remote) sealed() {}
