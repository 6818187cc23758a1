package batch

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	printables "github.com/alnah/go-printables"
)

// Progress reports one finished item. Current counts finished items and
// increases by one per event.
type Progress struct {
	Current int
	Total   int
	ItemID  string
	Name    string
	// Err is set when the item failed; the export continues.
	Err error
}

// ItemResult is the outcome of one item.
type ItemResult struct {
	ItemID        string
	Name          string
	FileName      string // archive entry, set for exported items
	Pages         int
	MissingAssets []string
	Err           error
	Duration      time.Duration
}

// Result is the outcome of a finished task.
type Result struct {
	State State // StateCompleted or StateCancelled
	// Archive is a zip of the exported documents. Nil when cancelled.
	Archive []byte
	// Items holds one entry per started item, in selection order.
	Items []ItemResult
}

// Exported counts items that produced a document.
func (r *Result) Exported() int {
	n := 0
	for _, it := range r.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts items that did not produce a document.
func (r *Result) Failed() int { return len(r.Items) - r.Exported() }

type runConfig struct {
	builder  Builder
	resolver AssetResolver
	workers  int
	opts     *printables.DocumentOptions
	logger   *zap.Logger
	onFinish func(*Result)
	// onProgress runs on the dispatching goroutine before the next item
	// may start.
	onProgress func(Progress)
}

// Task is one running export.
type Task struct {
	ctx      context.Context
	cancel   context.CancelFunc
	items    []Item
	cfg      runConfig
	progress chan Progress
	done     chan struct{}

	once   sync.Once
	result *Result
}

func newTask(parent context.Context, items []Item, cfg runConfig) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		ctx:    ctx,
		cancel: cancel,
		items:  items,
		cfg:    cfg,
		// Sized so workers never wait on a slow reader.
		progress: make(chan Progress, len(items)),
		done:     make(chan struct{}),
	}
}

func (t *Task) start() { go t.run() }

// Progress streams one event per finished item. It is closed when the task
// is done. Events are buffered, so a Cancel issued after reading one may
// race with the next item starting; use WithProgressFunc when cancellation
// must take effect before anything else starts.
func (t *Task) Progress() <-chan Progress { return t.progress }

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result returns the outcome, or nil while the task is running.
func (t *Task) Result() *Result {
	select {
	case <-t.done:
		return t.result
	default:
		return nil
	}
}

// Wait blocks until the task is done and returns its result.
func (t *Task) Wait() *Result {
	<-t.done
	return t.result
}

// Cancel requests cancellation. Items already rendering are interrupted
// through their context. Items not yet started never start.
func (t *Task) Cancel() { t.cancel() }

type outcome struct {
	res ItemResult
	pdf []byte
}

// run starts items while slots are free and handles finished items one at
// a time. A slot is released only after its progress event has been
// reported, so a cancel issued from the progress func stops every item not
// yet started.
func (t *Task) run() {
	defer t.cancel()

	total := len(t.items)
	outcomes := make([]*outcome, total)
	workers := max(t.cfg.workers, 1)
	sem := semaphore.NewWeighted(int64(workers))
	finishedCh := make(chan int, workers)

	next, running, finished := 0, 0, 0
	for {
		for next < total && t.ctx.Err() == nil && sem.TryAcquire(1) {
			i := next
			next++
			running++
			go func() {
				outcomes[i] = t.exportItem(t.items[i])
				finishedCh <- i
			}()
		}
		if running == 0 {
			break
		}

		i := <-finishedCh
		running--
		finished++
		t.report(Progress{
			Current: finished,
			Total:   total,
			ItemID:  t.items[i].ID,
			Name:    t.items[i].displayName(),
			Err:     outcomes[i].res.Err,
		})
		sem.Release(1)
		runtime.Gosched()
	}

	res := &Result{State: StateCompleted}
	if t.ctx.Err() != nil {
		res.State = StateCancelled
	}
	for _, o := range outcomes {
		if o != nil {
			res.Items = append(res.Items, o.res)
		}
	}
	if res.State == StateCompleted {
		archive, err := t.archive(res, outcomes)
		if err != nil {
			t.cfg.logger.Error("packaging batch archive", zap.Error(err))
			for i := range res.Items {
				if res.Items[i].Err == nil {
					res.Items[i].Err = err
					res.Items[i].FileName = ""
				}
			}
		}
		res.Archive = archive
	}

	t.finish(res)
}

// report delivers p to the progress func, then to the channel. The channel
// holds every event, so the send never blocks.
func (t *Task) report(p Progress) {
	if t.cfg.onProgress != nil {
		t.cfg.onProgress(p)
	}
	t.progress <- p
}

func (t *Task) finish(res *Result) {
	t.once.Do(func() {
		t.result = res
		if t.cfg.onFinish != nil {
			t.cfg.onFinish(res)
		}
		close(t.progress)
		close(t.done)
	})
}

func (t *Task) exportItem(item Item) *outcome {
	start := time.Now()
	o := &outcome{res: ItemResult{ItemID: item.ID, Name: item.displayName()}}
	log := t.cfg.logger.With(zap.String("item", item.ID))

	assets, err := t.resolve(item)
	if err == nil {
		var built *printables.Result
		built, err = t.cfg.builder.Build(t.ctx, item.Content, assets, item.Style, t.cfg.opts)
		if err == nil {
			o.pdf = built.PDF
			o.res.Pages = built.Pages
			o.res.MissingAssets = built.MissingAssets
		}
	}
	o.res.Duration = time.Since(start)
	if err != nil {
		o.res.Err = err
		log.Warn("batch item failed", zap.Error(err))
		return o
	}
	log.Debug("batch item exported", zap.Int("pages", o.res.Pages), zap.Duration("duration", o.res.Duration))
	return o
}

func (t *Task) resolve(item Item) (printables.AssetMap, error) {
	if t.cfg.resolver == nil {
		return item.Assets, nil
	}
	resolved, err := t.cfg.resolver.ResolveAssets(t.ctx, item)
	if err != nil {
		return nil, fmt.Errorf("resolving assets: %w", err)
	}
	merged := maps.Clone(item.Assets)
	if merged == nil {
		merged = printables.AssetMap{}
	}
	maps.Copy(merged, resolved)
	return merged, nil
}
