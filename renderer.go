package printables

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-printables/internal/htmlgen"
	"github.com/alnah/go-printables/internal/imageload"
	"github.com/alnah/go-printables/internal/layout"
	"github.com/alnah/go-printables/internal/pdfgen"
)

// Backend selects how layouts become PDF bytes.
type Backend string

const (
	// BackendNative draws with gofpdf. No external process is needed.
	BackendNative Backend = "native"
	// BackendChrome prints the HTML preview with headless Chrome.
	BackendChrome Backend = "chrome"
)

// ParseBackend maps a name to a Backend. Empty means native.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendNative:
		return BackendNative, nil
	case BackendChrome:
		return BackendChrome, nil
	}
	return "", fmt.Errorf("%w: %q (must be native or chrome)", ErrInvalidBackend, s)
}

// defaultTimeout bounds one build, image fetches included.
const defaultTimeout = 60 * time.Second

// Result is the output of a successful build.
type Result struct {
	PDF   []byte
	Pages int
	// MissingAssets lists card-level and other optional asset keys that
	// were drawn as placeholders.
	MissingAssets []string
}

// Option configures a Renderer.
type Option func(*Renderer)

type rendererConfig struct {
	backend   Backend
	timeout   time.Duration
	watermark *Watermark
	maxDim    int
	client    *http.Client
}

// WithBackend selects the output backend.
func WithBackend(b Backend) Option {
	return func(r *Renderer) {
		r.cfg.backend = b
	}
}

// WithTimeout sets the per-build timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("printables: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithWatermark replaces the mark drawn when DocumentOptions.Watermark is set.
func WithWatermark(w *Watermark) Option {
	return func(r *Renderer) {
		r.cfg.watermark = w
	}
}

// WithHTTPClient sets the client used to fetch http(s) asset URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Renderer) {
		r.cfg.client = c
	}
}

// WithMaxImageDimension caps the longest edge of embedded images in pixels.
func WithMaxImageDimension(px int) Option {
	return func(r *Renderer) {
		r.cfg.maxDim = px
	}
}

// WithClock fixes the time used for "auto" dates and PDF metadata.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// withPDFConverter injects the chrome converter (tests).
func withPDFConverter(c pdfConverter) Option {
	return func(r *Renderer) {
		r.chrome = c
	}
}

// Renderer builds documents from content records. With the native backend
// it is safe for concurrent use; chrome builds are serialized per Renderer,
// use a RendererPool for parallelism.
type Renderer struct {
	cfg    rendererConfig
	logger *zap.Logger
	now    func() time.Time
	images *imageload.Loader
	native *pdfgen.Writer
	html   *htmlgen.Renderer

	chromeMu sync.Mutex
	chrome   pdfConverter
}

// NewRenderer creates a Renderer. Defaults: native backend, 60s timeout,
// DefaultWatermark, no logging.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg: rendererConfig{
			backend:   BackendNative,
			timeout:   defaultTimeout,
			watermark: DefaultWatermark(),
		},
		logger: zap.NewNop(),
		now:    time.Now,
		html:   htmlgen.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	backend, err := ParseBackend(string(r.cfg.backend))
	if err != nil {
		return nil, err
	}
	r.cfg.backend = backend
	if r.cfg.watermark == nil {
		r.cfg.watermark = DefaultWatermark()
	}
	if err := r.cfg.watermark.Validate(); err != nil {
		return nil, err
	}

	var imgOpts []imageload.Option
	if r.cfg.client != nil {
		imgOpts = append(imgOpts, imageload.WithHTTPClient(r.cfg.client))
	}
	if r.cfg.maxDim > 0 {
		imgOpts = append(imgOpts, imageload.WithMaxDimension(r.cfg.maxDim))
	}
	r.images = imageload.New(imgOpts...)
	r.native = pdfgen.New(r.images, r.now)

	if r.cfg.backend == BackendChrome && r.chrome == nil {
		r.chrome = newRodConverter(r.cfg.timeout)
	}
	return r, nil
}

// Backend reports the configured backend.
func (r *Renderer) Backend() Backend { return r.cfg.backend }

// BuildDocument renders content to PDF bytes. assets maps the record's
// asset keys to image sources; the renderer performs no asset-store I/O.
// A nil style or opts means defaults.
func (r *Renderer) BuildDocument(ctx context.Context, content Content, assets AssetMap, style *Style, opts *DocumentOptions) ([]byte, error) {
	res, err := r.Build(ctx, content, assets, style, opts)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}

// Build is BuildDocument with page count and placeholder details.
// Recovers from internal panics so a bad record cannot crash a batch.
func (r *Renderer) Build(ctx context.Context, content Content, assets AssetMap, style *Style, opts *DocumentOptions) (res *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, fmt.Errorf("internal error: %v", rec)
		}
	}()

	doc, missing, err := r.layout(content, assets, style, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.timeout)
	defer cancel()

	var pdf []byte
	switch r.cfg.backend {
	case BackendChrome:
		pdf, err = r.printWithChrome(ctx, doc)
	default:
		var out *pdfgen.Result
		out, err = r.native.Render(ctx, doc)
		if out != nil {
			pdf = out.PDF
			for _, key := range out.Degraded {
				missing.add(key)
			}
		}
	}
	if err != nil {
		return nil, r.wrapBackendError(err)
	}

	if len(missing.keys) > 0 {
		r.logger.Warn("document built with placeholders",
			zap.String("kind", string(content.Kind())),
			zap.Strings("missing", missing.keys))
	}
	r.logger.Debug("document built",
		zap.String("kind", string(content.Kind())),
		zap.String("backend", string(r.cfg.backend)),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("bytes", len(pdf)))

	return &Result{PDF: pdf, Pages: len(doc.Pages), MissingAssets: missing.keys}, nil
}

// Preview renders the HTML preview of a document. It shares the layout
// step with Build, so positions are identical to the printed output.
func (r *Renderer) Preview(ctx context.Context, content Content, assets AssetMap, style *Style, opts *DocumentOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, _, err := r.layout(content, assets, style, opts)
	if err != nil {
		return "", err
	}
	return r.html.Render(doc)
}

// layout validates inputs and runs the builder for the content kind.
func (r *Renderer) layout(content Content, assets AssetMap, style *Style, opts *DocumentOptions) (*layout.Document, keySet, error) {
	if content == nil {
		return nil, keySet{}, ErrEmptyContent
	}
	if err := content.Validate(); err != nil {
		return nil, keySet{}, err
	}
	if err := style.Validate(); err != nil {
		return nil, keySet{}, err
	}
	if err := opts.Validate(); err != nil {
		return nil, keySet{}, err
	}

	b := newBuilder(assets, style, opts.normalized(), r.now(), r.logger)
	doc, err := b.build(content)
	if err != nil {
		return nil, keySet{}, err
	}
	if b.opts.Watermark {
		applyWatermark(doc, r.cfg.watermark)
	}
	return doc, b.missing, nil
}

func (r *Renderer) printWithChrome(ctx context.Context, doc *layout.Document) ([]byte, error) {
	html, err := r.html.Render(doc)
	if err != nil {
		return nil, err
	}
	r.chromeMu.Lock()
	defer r.chromeMu.Unlock()
	first := doc.Pages[0]
	return r.chrome.ToPDF(ctx, html, first.Width, first.Height)
}

func (r *Renderer) wrapBackendError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, pdfgen.ErrRequiredImage):
		return fmt.Errorf("%w: %v", ErrMissingRequiredAsset, err)
	case errors.Is(err, ErrBrowserConnect), errors.Is(err, ErrPageCreate),
		errors.Is(err, ErrPageLoad), errors.Is(err, ErrPDFGeneration):
		return err
	}
	return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
}

// Close releases the browser, if one was started.
func (r *Renderer) Close() error {
	r.chromeMu.Lock()
	defer r.chromeMu.Unlock()
	if r.chrome != nil {
		return r.chrome.Close()
	}
	return nil
}
