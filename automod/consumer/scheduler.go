package consumer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var ErrSchedulerClosed = errors.New("scheduler is shut down")

// Scheduler runs work on a fixed number of workers. Work items sharing a key run one at a time, in the order they were added; different keys run in parallel.
type Scheduler[T any] struct {
	maxConcurrency int

	do func(context.Context, T) error

	feeder chan *task[T]
	out    chan struct{}
	// closed when Shutdown starts; the feeder itself is never closed, so a late sender can't panic
	stopping chan struct{}

	lk     sync.Mutex
	active map[string][]*task[T]
	closed bool

	ident string

	// metrics
	itemsAdded     prometheus.Counter
	itemsProcessed prometheus.Counter
	itemsActive    prometheus.Counter
	workersActive  prometheus.Gauge

	log *slog.Logger
}

func NewScheduler[T any](maxC int, ident string, do func(context.Context, T) error) *Scheduler[T] {
	p := &Scheduler[T]{
		maxConcurrency: maxC,

		do: do,

		feeder:   make(chan *task[T]),
		active:   make(map[string][]*task[T]),
		out:      make(chan struct{}),
		stopping: make(chan struct{}),

		ident: ident,

		itemsAdded:     workItemsAdded.WithLabelValues(ident),
		itemsProcessed: workItemsProcessed.WithLabelValues(ident),
		itemsActive:    workItemsActive.WithLabelValues(ident),
		workersActive:  workersActive.WithLabelValues(ident),

		log: slog.Default().With("system", "keyed-scheduler"),
	}

	for i := 0; i < maxC; i++ {
		go p.worker()
	}

	p.workersActive.Set(float64(maxC))

	return p
}

// Waits for in-flight work to finish and stops all workers. Work queued behind an in-flight item for the same key is still processed before that worker exits. AddWork returns ErrSchedulerClosed once Shutdown has started. Calling Shutdown more than once is a no-op.
func (p *Scheduler[T]) Shutdown() {
	p.lk.Lock()
	if p.closed {
		p.lk.Unlock()
		return
	}
	p.closed = true
	close(p.stopping)
	p.lk.Unlock()

	p.log.Info("shutting down keyed scheduler", "ident", p.ident)

	for i := 0; i < p.maxConcurrency; i++ {
		p.feeder <- &task[T]{
			control: "stop",
		}
	}

	for i := 0; i < p.maxConcurrency; i++ {
		<-p.out
	}

	p.workersActive.Set(0)
	p.log.Info("keyed scheduler shutdown complete")
}

type task[T any] struct {
	key     string
	val     T
	control string
}

// Queues work under the given key. Blocks while all workers are busy with other keys.
func (p *Scheduler[T]) AddWork(ctx context.Context, key string, val T) error {
	p.itemsAdded.Inc()
	t := &task[T]{
		key: key,
		val: val,
	}
	p.lk.Lock()
	if p.closed {
		p.lk.Unlock()
		return ErrSchedulerClosed
	}

	a, ok := p.active[key]
	if ok {
		p.active[key] = append(a, t)
		p.lk.Unlock()
		return nil
	}

	p.active[key] = []*task[T]{}
	p.lk.Unlock()

	select {
	case p.feeder <- t:
		return nil
	case <-ctx.Done():
		p.dropKey(key)
		return ctx.Err()
	case <-p.stopping:
		p.dropKey(key)
		return ErrSchedulerClosed
	}
}

// Nothing is running for this key, so anything queued behind the unsent item is dropped with it.
func (p *Scheduler[T]) dropKey(key string) {
	p.lk.Lock()
	dropped := len(p.active[key])
	delete(p.active, key)
	p.lk.Unlock()
	if dropped > 0 {
		p.log.Warn("dropped queued work", "key", key, "count", dropped+1)
	}
}

func (p *Scheduler[T]) worker() {
	for work := range p.feeder {
		for work != nil {
			if work.control == "stop" {
				p.out <- struct{}{}
				return
			}

			p.itemsActive.Inc()
			if err := p.do(context.TODO(), work.val); err != nil {
				p.log.Error("event handler failed", "key", work.key, "err", err)
			}
			p.itemsProcessed.Inc()

			p.lk.Lock()
			rem, ok := p.active[work.key]
			if !ok {
				p.log.Error("should always have an 'active' entry if a worker is processing a job")
			}

			if len(rem) == 0 {
				delete(p.active, work.key)
				work = nil
			} else {
				work = rem[0]
				p.active[work.key] = rem[1:]
			}
			p.lk.Unlock()
		}
	}
}
