// Package imageload fetches image sources referenced by a layout and
// normalizes them for embedding: oversized images are downscaled and every
// image is re-encoded as PNG (with alpha) or JPEG (opaque).
package imageload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/alnah/go-printables/internal/fileutil"
)

// Sentinel errors.
var (
	ErrEmptySource = errors.New("image source is empty")
	ErrFetch       = errors.New("failed to fetch image")
	ErrDecode      = errors.New("failed to decode image")
	ErrTooLarge    = errors.New("image exceeds size limit")
)

// Defaults.
const (
	DefaultMaxBytes     = 20 << 20
	DefaultMaxDimension = 2400
	DefaultCacheEntries = 128
	jpegQuality         = 88
)

// Image is a normalized image ready for a PDF writer.
type Image struct {
	Data   []byte
	Format string // "PNG" or "JPG"
	Width  int
	Height int
}

// AspectRatio returns width over height.
func (i *Image) AspectRatio() float64 {
	if i.Height == 0 {
		return 1
	}
	return float64(i.Width) / float64(i.Height)
}

// Loader loads and normalizes images. Safe for concurrent use.
type Loader struct {
	client   *http.Client
	maxBytes int64
	maxDim   int
	maxCache int

	mu    sync.Mutex
	cache map[string]*Image
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the HTTP client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithMaxDimension sets the longest edge images are downscaled to.
func WithMaxDimension(px int) Option {
	return func(l *Loader) {
		if px > 0 {
			l.maxDim = px
		}
	}
}

// WithMaxBytes caps the raw size of a fetched image.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: DefaultMaxBytes,
		maxDim:   DefaultMaxDimension,
		maxCache: DefaultCacheEntries,
		cache:    make(map[string]*Image),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves src (data URI, http(s) URL, file:// URL or local path)
// and returns the normalized image. Successful loads are cached by src.
func (l *Loader) Load(ctx context.Context, src string) (*Image, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptySource
	}
	if img := l.cached(src); img != nil {
		return img, nil
	}

	raw, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := l.Normalize(raw)
	if err != nil {
		return nil, err
	}

	l.store(src, img)
	return img, nil
}

// Normalize decodes raw bytes, downscales them to the loader's maximum
// dimension and re-encodes them.
func (l *Loader) Normalize(raw []byte) (*Image, error) {
	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := src.Bounds()
	if max(b.Dx(), b.Dy()) > l.maxDim {
		src = imaging.Fit(src, l.maxDim, l.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	format := "JPG"
	if hasAlpha(src) {
		format = "PNG"
		err = imaging.Encode(&buf, src, imaging.PNG)
	} else {
		err = imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encoding: %v", ErrDecode, err)
	}

	nb := src.Bounds()
	return &Image{Data: buf.Bytes(), Format: format, Width: nb.Dx(), Height: nb.Dy()}, nil
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case fileutil.IsURL(src):
		return l.fetchHTTP(ctx, src)
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		return l.readFile(u.Path)
	default:
		return l.readFile(src)
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, src, resp.StatusCode)
	}
	return l.readLimited(resp.Body)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 -- asset paths come from the blob store
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.maxBytes)
	}
	return data, nil
}

// decodeDataURI supports base64 data URIs, which is what in-memory blob
// stores hand out.
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URI", ErrFetch)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URI must be base64 encoded", ErrFetch)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (l *Loader) cached(src string) *Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache[src]
}

func (l *Loader) store(src string, img *Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Coarse eviction keeps memory bounded across long batch runs.
	if len(l.cache) >= l.maxCache {
		clear(l.cache)
	}
	l.cache[src] = img
}
