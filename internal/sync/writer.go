package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/focus/internal/logging"
)

// WriterState represents what the writer is doing right now.
type WriterState int

const (
	WriterIdle WriterState = iota
	WriterBusy
	WriterError
)

// Status is a point-in-time view of the writer for the status bar.
type Status struct {
	State     WriterState
	Pending   int
	LastOp    string
	LastError error
	LastWrite time.Time
}

// WriteErrorMsg is a tea.Msg sent when a background write fails.
type WriteErrorMsg struct {
	Op  string
	Err error
}

// ReconciledMsg is a tea.Msg sent after the reconcile hooks ran.
type ReconciledMsg struct {
	Err error
}

// opTimeout is the maximum time allowed for a single write.
const opTimeout = 30 * time.Second

// maxReconciles caps back-to-back reconciles with no successful write in
// between, so a backend that is down does not spin the writer.
const maxReconciles = 2

// ReconcileFunc re-fetches authoritative state after a failed write.
type ReconcileFunc func(ctx context.Context) error

type op struct {
	name string
	run  func(ctx context.Context) error
}

// Writer runs persistence writes in submission order on one background
// goroutine. A failed write marks the writer dirty; once the queue is
// empty the reconcile hooks run a single time.
type Writer struct {
	log     logrus.FieldLogger
	hooks   []ReconcileFunc
	queue   []op
	wake    chan struct{}
	done    chan struct{}
	eventCh chan tea.Msg
	mu      gosync.Mutex
	idle    *gosync.Cond
	busy    bool
	dirty   bool
	rounds  int
	closed  bool
	status  Status
}

// NewWriter starts a writer. Call Close to flush and stop it.
func NewWriter(log logrus.FieldLogger) *Writer {
	if log == nil {
		log = logging.Discard()
	}
	w := &Writer{
		log:     log,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		eventCh: make(chan tea.Msg, 16),
	}
	w.idle = gosync.NewCond(&w.mu)
	go w.run()
	return w
}

// OnReconcile registers a hook run after failed writes.
func (w *Writer) OnReconcile(fn ReconcileFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, fn)
}

// Submit queues a write. It never blocks. Writes submitted after Close
// are dropped.
func (w *Writer) Submit(name string, fn func(ctx context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.log.WithField("op", name).Warn("writer closed, dropping write")
		return
	}
	w.queue = append(w.queue, op{name: name, run: fn})

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until every submitted write, and any reconcile it caused,
// has finished.
func (w *Writer) Wait() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.queue) > 0 || w.busy {
		w.idle.Wait()
	}
}

// Close flushes pending writes and stops the background goroutine.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()
	<-w.done
}

// Status returns the writer's current status.
func (w *Writer) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := w.status
	st.Pending = len(w.queue)
	if w.busy {
		st.Pending++
		if st.State != WriterError {
			st.State = WriterBusy
		}
	}
	return st
}

func (w *Writer) run() {
	defer close(w.done)
	for range w.wake {
		w.drain()
	}
	w.drain()
}

// drain executes queued writes until the queue is empty, then reconciles
// if anything failed along the way.
func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			if w.dirty && w.rounds >= maxReconciles {
				w.dirty = false
				w.log.WithField("op", "reconcile").Warn("backend keeps failing, skipping reconcile")
			}
			if !w.dirty {
				w.busy = false
				w.idle.Broadcast()
				w.mu.Unlock()
				return
			}
			w.dirty = false
			w.rounds++
			hooks := append([]ReconcileFunc(nil), w.hooks...)
			w.busy = true
			w.mu.Unlock()

			w.reconcile(hooks)
			continue
		}

		next := w.queue[0]
		w.queue = w.queue[1:]
		w.busy = true
		w.mu.Unlock()

		w.execute(next)
	}
}

func (w *Writer) execute(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := o.run(ctx)

	w.mu.Lock()
	w.status.LastOp = o.name
	if err != nil {
		w.dirty = true
		w.status.State = WriterError
		w.status.LastError = err
	} else {
		w.status.LastWrite = time.Now()
		w.rounds = 0
		if w.status.State != WriterError {
			w.status.State = WriterIdle
		}
	}
	w.mu.Unlock()

	if err != nil {
		w.log.WithField("op", o.name).WithError(err).Error("write failed")
		w.send(WriteErrorMsg{Op: o.name, Err: err})
		return
	}
	w.log.WithField("op", o.name).Debug("write ok")
}

func (w *Writer) reconcile(hooks []ReconcileFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var firstErr error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			w.log.WithField("op", "reconcile").WithError(err).Error("reconcile failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	w.mu.Lock()
	if firstErr == nil {
		w.status.State = WriterIdle
		w.status.LastError = nil
	}
	w.mu.Unlock()

	w.log.WithField("op", "reconcile").Info("state reloaded after failed write")
	w.send(ReconciledMsg{Err: firstErr})
}

// send delivers an event to the UI without blocking the writer.
func (w *Writer) send(msg tea.Msg) {
	select {
	case w.eventCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the writer
	}
}

// WaitForEvent returns a tea.Cmd that waits for the next writer event.
// Call it again after handling a WriteErrorMsg or ReconciledMsg to keep
// listening.
func (w *Writer) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}
