// Package batch exports many printable resources in one run. A Session
// holds the selectable resources and moves through
// Idle → Exporting → (Completed | Cancelled); Exit ends it for good.
// Each export runs as a Task that streams progress and can be cancelled.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/assetstore"
)

// Sentinel errors.
var (
	ErrUnknownItem    = errors.New("unknown item")
	ErrDuplicateItem  = errors.New("duplicate item id")
	ErrEmptySelection = errors.New("nothing selected")
	ErrBusy           = errors.New("export in progress")
	ErrExited         = errors.New("session exited")
	ErrNoBuilder      = errors.New("no document builder configured")
)

// State is the session's position in its lifecycle.
type State string

// Session states.
const (
	StateIdle      State = "idle"
	StateExporting State = "exporting"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateExited    State = "exited"
)

// Builder renders one document. *printables.Renderer and
// *printables.RendererPool both satisfy it.
type Builder interface {
	Build(ctx context.Context, content printables.Content, assets printables.AssetMap, style *printables.Style, opts *printables.DocumentOptions) (*printables.Result, error)
}

// AssetResolver produces the asset map for one item.
type AssetResolver interface {
	ResolveAssets(ctx context.Context, item Item) (printables.AssetMap, error)
}

// ResolverFunc adapts a function to AssetResolver.
type ResolverFunc func(ctx context.Context, item Item) (printables.AssetMap, error)

// ResolveAssets calls f.
func (f ResolverFunc) ResolveAssets(ctx context.Context, item Item) (printables.AssetMap, error) {
	return f(ctx, item)
}

// RepositoryResolver resolves an item's assets from its Owners, in order.
func RepositoryResolver(repo *assetstore.Repository) AssetResolver {
	return ResolverFunc(func(ctx context.Context, item Item) (printables.AssetMap, error) {
		if len(item.Owners) == 0 {
			return printables.AssetMap{}, nil
		}
		return repo.Resolve(ctx, item.Owners...)
	})
}

// Item is one exportable resource.
type Item struct {
	ID      string
	Name    string // archive entry stem; ID when empty
	Content printables.Content
	Style   *printables.Style
	// Assets is used as is when no resolver is configured, and as the base
	// the resolved map is layered over otherwise.
	Assets printables.AssetMap
	// Owners are looked up by RepositoryResolver, resource before style.
	Owners []assetstore.Owner
}

func (it Item) displayName() string {
	if it.Name != "" {
		return it.Name
	}
	return it.ID
}

// Option configures a Session.
type Option func(*Session)

// WithResolver sets how item assets are looked up before each build.
func WithResolver(r AssetResolver) Option {
	return func(s *Session) { s.resolver = r }
}

// WithWorkers bounds how many items render at once. Values below one mean
// one at a time.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// WithProgressFunc sets a func called with each progress event, in
// completion order, on the goroutine that starts items. No further item
// starts until it returns, so calling Cancel from fn stops the export with
// no more builds than events seen.
func WithProgressFunc(fn func(Progress)) Option {
	return func(s *Session) { s.onProgress = fn }
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session tracks selection and export state for a set of items. It is safe
// for concurrent use.
type Session struct {
	builder    Builder
	resolver   AssetResolver
	workers    int
	logger     *zap.Logger
	onProgress func(Progress)

	mu       sync.Mutex
	items    []Item
	index    map[string]int
	selected map[string]bool
	state    State
	task     *Task
}

// NewSession creates an idle session over items. Item order is the export
// order. Nothing is selected initially.
func NewSession(items []Item, builder Builder, opts ...Option) (*Session, error) {
	if builder == nil {
		return nil, ErrNoBuilder
	}
	s := &Session{
		builder:  builder,
		workers:  1,
		logger:   zap.NewNop(),
		items:    make([]Item, 0, len(items)),
		index:    make(map[string]int, len(items)),
		selected: make(map[string]bool),
		state:    StateIdle,
	}
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: empty id", ErrUnknownItem)
		}
		if _, dup := s.index[it.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, it.ID)
		}
		s.index[it.ID] = len(s.items)
		s.items = append(s.items, it)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Selected returns the selected item ids in export order.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for _, it := range s.items {
		if s.selected[it.ID] {
			out = append(out, it.ID)
		}
	}
	return out
}

// Select adds ids to the selection. Unknown ids fail the whole call.
func (s *Session) Select(ids ...string) error {
	return s.editSelection(func() error {
		for _, id := range ids {
			if _, ok := s.index[id]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownItem, id)
			}
		}
		for _, id := range ids {
			s.selected[id] = true
		}
		return nil
	})
}

// Deselect removes ids from the selection. Unknown ids are ignored.
func (s *Session) Deselect(ids ...string) error {
	return s.editSelection(func() error {
		for _, id := range ids {
			delete(s.selected, id)
		}
		return nil
	})
}

// SelectAll selects every item.
func (s *Session) SelectAll() error {
	return s.editSelection(func() error {
		for _, it := range s.items {
			s.selected[it.ID] = true
		}
		return nil
	})
}

// DeselectAll clears the selection.
func (s *Session) DeselectAll() error {
	return s.editSelection(func() error {
		clear(s.selected)
		return nil
	})
}

// editSelection runs fn under the lock when the selection may change:
// never while exporting or after exit.
func (s *Session) editSelection(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateExited:
		return ErrExited
	case StateExporting:
		return ErrBusy
	}
	return fn()
}

// StartExport begins exporting the selection with opts and returns the
// running task. It may be called again once a previous export has
// completed or been cancelled.
func (s *Session) StartExport(ctx context.Context, opts *printables.DocumentOptions) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateExited:
		return nil, ErrExited
	case StateExporting:
		return nil, ErrBusy
	}

	var items []Item
	for _, it := range s.items {
		if s.selected[it.ID] {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptySelection
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var t *Task
	t = newTask(ctx, items, runConfig{
		builder:    s.builder,
		resolver:   s.resolver,
		workers:    s.workers,
		opts:       opts,
		logger:     s.logger,
		onFinish:   func(res *Result) { s.finish(t, res) },
		onProgress: s.onProgress,
	})
	s.state = StateExporting
	s.task = t
	s.logger.Info("batch export started", zap.Int("items", len(items)), zap.Int("workers", s.workers))
	t.start()
	return t, nil
}

// finish runs on the task goroutine before the task reports done, so a
// caller woken by Done observes the terminal state.
func (s *Session) finish(t *Task, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != t {
		return
	}
	s.task = nil
	if s.state == StateExited {
		return
	}
	s.state = res.State
	s.logger.Info("batch export finished",
		zap.String("state", string(res.State)),
		zap.Int("exported", res.Exported()),
		zap.Int("failed", res.Failed()))
}

// Cancel stops the running export. Items not yet started are never
// rendered. It is a no-op when nothing is exporting.
func (s *Session) Cancel() {
	s.mu.Lock()
	t := s.task
	s.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

// Wait blocks until the running export, if any, has finished.
func (s *Session) Wait() {
	s.mu.Lock()
	t := s.task
	s.mu.Unlock()
	if t != nil {
		<-t.Done()
	}
}

// Exit cancels any running export and closes the session. Further calls
// return ErrExited.
func (s *Session) Exit() {
	s.mu.Lock()
	t := s.task
	s.state = StateExited
	s.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}
