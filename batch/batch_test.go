package batch

// Notes:
// - Builders are hand-written mocks keyed by the poster title, which each
//   test sets to the item id.
// - Cancellation tests cancel either from inside the builder or from the
//   progress func; both land at a deterministic point with one worker.

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/blobstore"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type mockBuilder struct {
	mu     sync.Mutex
	calls  []string
	assets []printables.AssetMap
	// hook runs before the build returns; nil error means success.
	hook func(ctx context.Context, id string, call int) error
}

func (b *mockBuilder) Build(ctx context.Context, content printables.Content, assets printables.AssetMap, _ *printables.Style, _ *printables.DocumentOptions) (*printables.Result, error) {
	id := content.(*printables.Poster).Title
	b.mu.Lock()
	b.calls = append(b.calls, id)
	b.assets = append(b.assets, assets)
	call := len(b.calls)
	b.mu.Unlock()

	if b.hook != nil {
		if err := b.hook(ctx, id, call); err != nil {
			return nil, err
		}
	}
	return &printables.Result{PDF: []byte("%PDF " + id), Pages: 1}, nil
}

func (b *mockBuilder) called() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

func makeItems(ids ...string) []Item {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{ID: id, Name: "Resource " + id, Content: &printables.Poster{Title: id, AssetKey: "img"}}
	}
	return items
}

func collect(t *testing.T, task *Task) []Progress {
	t.Helper()
	var events []Progress
	timeout := time.After(10 * time.Second)
	for {
		select {
		case p, ok := <-task.Progress():
			if !ok {
				return events
			}
			events = append(events, p)
		case <-timeout:
			t.Fatal("progress channel never closed")
		}
	}
}

func assertStrictlyIncreasing(t *testing.T, events []Progress) {
	t.Helper()
	for i, p := range events {
		if p.Current != i+1 {
			t.Errorf("event %d has Current = %d, want %d", i, p.Current, i+1)
		}
	}
}

func zipNames(t *testing.T, archive []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		out[f.Name] = string(data)
	}
	return out
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func TestExport_CancelAfterSecondItem(t *testing.T) {
	t.Parallel()

	var s *Session
	b := &mockBuilder{hook: func(_ context.Context, _ string, call int) error {
		if call == 2 {
			s.Cancel()
		}
		return nil
	}}
	s, err := NewSession(makeItems("1", "2", "3", "4", "5"), b)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SelectAll(); err != nil {
		t.Fatal(err)
	}
	task, err := s.StartExport(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	events := collect(t, task)
	if len(events) != 2 {
		t.Fatalf("progress events = %d, want 2", len(events))
	}
	assertStrictlyIncreasing(t, events)
	if got := b.called(); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("rendered %v, want [1 2]", got)
	}

	res := task.Wait()
	if res.State != StateCancelled || res.Archive != nil {
		t.Errorf("result = %+v, want cancelled without archive", res)
	}
	if s.State() != StateCancelled {
		t.Errorf("session state = %s, want cancelled", s.State())
	}
}

func TestExport_CancelFromProgressFunc(t *testing.T) {
	t.Parallel()

	// Repeated because a cancel that races the next dispatch only shows up
	// now and then.
	for run := range 200 {
		var (
			s      *Session
			events []Progress
		)
		b := &mockBuilder{}
		s, err := NewSession(makeItems("1", "2", "3", "4", "5"), b, WithProgressFunc(func(p Progress) {
			events = append(events, p)
			if p.Current == 2 {
				s.Cancel()
			}
		}))
		if err != nil {
			t.Fatal(err)
		}
		_ = s.SelectAll()
		task, err := s.StartExport(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		res := task.Wait()

		if len(events) != 2 {
			t.Fatalf("run %d: progress events = %d, want 2", run, len(events))
		}
		assertStrictlyIncreasing(t, events)
		if got := b.called(); !slices.Equal(got, []string{"1", "2"}) {
			t.Fatalf("run %d: rendered %v, want [1 2]", run, got)
		}
		if res.State != StateCancelled || res.Archive != nil {
			t.Fatalf("run %d: result = %+v, want cancelled without archive", run, res)
		}
		if got := len(collect(t, task)); got != 2 {
			t.Fatalf("run %d: channel events = %d, want 2", run, got)
		}
	}
}

func TestExport_ProgressFuncSlowsDispatch(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	b := &mockBuilder{hook: func(context.Context, string, int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		inFlight.Add(-1)
		return nil
	}}
	var seen []int
	s, _ := NewSession(makeItems("1", "2", "3", "4"), b, WithWorkers(2), WithProgressFunc(func(p Progress) {
		seen = append(seen, p.Current)
	}))
	_ = s.SelectAll()
	task, _ := s.StartExport(context.Background(), nil)
	res := task.Wait()

	if !slices.Equal(seen, []int{1, 2, 3, 4}) {
		t.Errorf("progress = %v, want [1 2 3 4]", seen)
	}
	if res.State != StateCompleted || res.Exported() != 4 {
		t.Errorf("result: state=%s exported=%d", res.State, res.Exported())
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestExport_CompletesWithArchive(t *testing.T) {
	t.Parallel()

	items := makeItems("a", "b", "c")
	items[2].Name = items[0].Name // same file name as "a"
	b := &mockBuilder{}
	s, _ := NewSession(items, b, WithWorkers(3))
	_ = s.SelectAll()

	task, err := s.StartExport(context.Background(), &printables.DocumentOptions{CardsPerPage: 6})
	if err != nil {
		t.Fatal(err)
	}
	events := collect(t, task)
	if len(events) != 3 {
		t.Fatalf("progress events = %d, want 3", len(events))
	}
	assertStrictlyIncreasing(t, events)
	for _, p := range events {
		if p.Total != 3 || p.Err != nil {
			t.Errorf("event = %+v", p)
		}
	}

	res := task.Result()
	if res == nil || res.State != StateCompleted {
		t.Fatalf("result = %+v, want completed", res)
	}
	if s.State() != StateCompleted {
		t.Errorf("session state = %s", s.State())
	}
	files := zipNames(t, res.Archive)
	want := map[string]string{
		"Resource a.pdf":     "%PDF a",
		"Resource b.pdf":     "%PDF b",
		"Resource a (2).pdf": "%PDF c",
	}
	if len(files) != len(want) {
		t.Errorf("archive = %v", files)
	}
	for name, body := range want {
		if files[name] != body {
			t.Errorf("archive[%q] = %q, want %q", name, files[name], body)
		}
	}
	if res.Items[2].FileName != "Resource a (2).pdf" || res.Exported() != 3 {
		t.Errorf("items = %+v", res.Items)
	}
}

func TestExport_FailedItemIsSkipped(t *testing.T) {
	t.Parallel()

	boom := errors.New("render failed")
	b := &mockBuilder{hook: func(_ context.Context, id string, _ int) error {
		if id == "2" {
			return boom
		}
		return nil
	}}
	s, _ := NewSession(makeItems("1", "2", "3"), b)
	_ = s.SelectAll()
	task, _ := s.StartExport(context.Background(), nil)
	events := collect(t, task)

	if len(events) != 3 || !errors.Is(events[1].Err, boom) {
		t.Fatalf("events = %+v", events)
	}
	res := task.Wait()
	if res.State != StateCompleted || res.Failed() != 1 || res.Exported() != 2 {
		t.Errorf("result: state=%s failed=%d exported=%d", res.State, res.Failed(), res.Exported())
	}
	if !errors.Is(res.Items[1].Err, boom) || res.Items[1].FileName != "" {
		t.Errorf("failed item = %+v", res.Items[1])
	}
	if files := zipNames(t, res.Archive); len(files) != 2 {
		t.Errorf("archive holds %d files, want 2", len(files))
	}
}

func TestExport_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	b := &mockBuilder{hook: func(context.Context, string, int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}}
	s, _ := NewSession(makeItems("1", "2", "3", "4", "5", "6", "7", "8"), b, WithWorkers(2))
	_ = s.SelectAll()
	task, _ := s.StartExport(context.Background(), nil)
	events := collect(t, task)

	if len(events) != 8 {
		t.Errorf("events = %d, want 8", len(events))
	}
	assertStrictlyIncreasing(t, events)
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestExport_ParentContextCancelled(t *testing.T) {
	t.Parallel()

	b := &mockBuilder{}
	s, _ := NewSession(makeItems("1", "2"), b)
	_ = s.SelectAll()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task, err := s.StartExport(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if events := collect(t, task); len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
	if res := task.Wait(); res.State != StateCancelled || len(b.called()) != 0 {
		t.Errorf("state = %s, builds = %d", res.State, len(b.called()))
	}
}

func TestExport_SelectionOrderIsStable(t *testing.T) {
	t.Parallel()

	b := &mockBuilder{}
	s, _ := NewSession(makeItems("1", "2", "3", "4"), b)
	if err := s.Select("4", "2"); err != nil {
		t.Fatal(err)
	}
	if got := s.Selected(); !slices.Equal(got, []string{"2", "4"}) {
		t.Errorf("Selected() = %v", got)
	}
	task, _ := s.StartExport(context.Background(), nil)
	collect(t, task)
	if got := b.called(); !slices.Equal(got, []string{"2", "4"}) {
		t.Errorf("render order = %v, want [2 4]", got)
	}
}

// ---------------------------------------------------------------------------
// Session state machine
// ---------------------------------------------------------------------------

func TestSession_StateMachine(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	b := &mockBuilder{hook: func(ctx context.Context, _ string, _ int) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}
	s, _ := NewSession(makeItems("1", "2"), b)

	if s.State() != StateIdle {
		t.Fatalf("initial state = %s", s.State())
	}
	if _, err := s.StartExport(context.Background(), nil); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("empty selection = %v", err)
	}
	if err := s.Select("1", "nope"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Select(unknown) = %v", err)
	}
	if len(s.Selected()) != 0 {
		t.Error("failed Select changed the selection")
	}
	_ = s.SelectAll()
	if _, err := s.StartExport(context.Background(), &printables.DocumentOptions{CardsPerPage: 5}); !errors.Is(err, printables.ErrInvalidCardsPerPage) {
		t.Errorf("invalid options = %v", err)
	}

	task, err := s.StartExport(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateExporting {
		t.Errorf("state = %s, want exporting", s.State())
	}
	if _, err := s.StartExport(context.Background(), nil); !errors.Is(err, ErrBusy) {
		t.Errorf("second export = %v, want ErrBusy", err)
	}
	if err := s.DeselectAll(); !errors.Is(err, ErrBusy) {
		t.Errorf("DeselectAll while exporting = %v, want ErrBusy", err)
	}
	if task.Result() != nil {
		t.Error("Result() before done should be nil")
	}

	close(release)
	s.Wait()
	if s.State() != StateCompleted {
		t.Errorf("state = %s, want completed", s.State())
	}

	// A finished session can export again.
	_ = s.Deselect("2")
	task, err = s.StartExport(context.Background(), nil)
	if err != nil {
		t.Fatalf("re-export = %v", err)
	}
	if res := task.Wait(); res.Exported() != 1 {
		t.Errorf("re-export exported %d", res.Exported())
	}

	s.Exit()
	if s.State() != StateExited {
		t.Errorf("state = %s, want exited", s.State())
	}
	if err := s.SelectAll(); !errors.Is(err, ErrExited) {
		t.Errorf("SelectAll after exit = %v", err)
	}
	if _, err := s.StartExport(context.Background(), nil); !errors.Is(err, ErrExited) {
		t.Errorf("StartExport after exit = %v", err)
	}
}

func TestSession_ExitCancelsExport(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	b := &mockBuilder{hook: func(ctx context.Context, _ string, call int) error {
		if call == 1 {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	}}
	s, _ := NewSession(makeItems("1", "2", "3"), b)
	_ = s.SelectAll()
	task, _ := s.StartExport(context.Background(), nil)

	<-started
	s.Exit()
	res := task.Wait()
	if res.State != StateCancelled {
		t.Errorf("task state = %s, want cancelled", res.State)
	}
	if s.State() != StateExited {
		t.Errorf("session state = %s, want exited", s.State())
	}
	if len(b.called()) != 1 {
		t.Errorf("builds = %d, want 1", len(b.called()))
	}
}

func TestNewSession_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewSession(nil, nil); !errors.Is(err, ErrNoBuilder) {
		t.Errorf("nil builder = %v", err)
	}
	if _, err := NewSession(makeItems("1", "1"), &mockBuilder{}); !errors.Is(err, ErrDuplicateItem) {
		t.Errorf("duplicate ids = %v", err)
	}
	if _, err := NewSession([]Item{{Name: "x"}}, &mockBuilder{}); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("empty id = %v", err)
	}
}

// ---------------------------------------------------------------------------
// Asset resolution
// ---------------------------------------------------------------------------

func TestExport_ResolverMergesAssets(t *testing.T) {
	t.Parallel()

	items := makeItems("1", "2")
	items[0].Assets = printables.AssetMap{"img": "inline", "extra": "kept"}
	resolver := ResolverFunc(func(_ context.Context, item Item) (printables.AssetMap, error) {
		if item.ID == "2" {
			return nil, errors.New("store offline")
		}
		return printables.AssetMap{"img": "resolved"}, nil
	})
	b := &mockBuilder{}
	s, _ := NewSession(items, b, WithResolver(resolver))
	_ = s.SelectAll()
	task, _ := s.StartExport(context.Background(), nil)
	res := task.Wait()

	if len(b.assets) != 1 {
		t.Fatalf("builds = %d, want 1 (item 2 fails before rendering)", len(b.assets))
	}
	if got := b.assets[0]; got["img"] != "resolved" || got["extra"] != "kept" {
		t.Errorf("assets = %v", got)
	}
	if items[0].Assets["img"] != "inline" {
		t.Error("item assets were mutated")
	}
	if res.Items[1].Err == nil || res.State != StateCompleted {
		t.Errorf("result = %+v", res)
	}
}

func TestRepositoryResolver(t *testing.T) {
	t.Parallel()

	repo, err := assetstore.New(assetstore.NewMemoryRecords(), blobstore.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	owner := assetstore.ResourceOwner(uuid.New())
	ctx := context.Background()
	if _, err := repo.UploadVersion(ctx, assetstore.Key{Owner: owner, Kind: "image", Name: "img"}, []byte("png"), "image/png"); err != nil {
		t.Fatal(err)
	}

	r := RepositoryResolver(repo)
	got, err := r.ResolveAssets(ctx, Item{ID: "1", Owners: []assetstore.Owner{owner}})
	if err != nil {
		t.Fatal(err)
	}
	if got["img"] != "data:image/png;base64,cG5n" {
		t.Errorf("ResolveAssets() = %v", got)
	}
	none, err := r.ResolveAssets(ctx, Item{ID: "2"})
	if err != nil || len(none) != 0 {
		t.Errorf("no owners = %v, %v", none, err)
	}
}

// ---------------------------------------------------------------------------
// Archive names
// ---------------------------------------------------------------------------

func TestNamer(t *testing.T) {
	t.Parallel()

	n := newNamer()
	got := []string{
		n.next("Feelings"),
		n.next("feelings"),
		n.next("Feelings"),
		n.next("a/b"),
		n.next(""),
	}
	want := []string{"Feelings.pdf", "feelings (2).pdf", "Feelings (3).pdf", "a_b.pdf", "untitled.pdf"}
	if !slices.Equal(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}
