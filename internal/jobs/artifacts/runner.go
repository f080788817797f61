package artifacts

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"
)

// Runner is the in-process Submitter: a buffered channel drained by a fixed
// worker pool. Submit never blocks; a full buffer drops the batch.
type Runner struct {
	handle  Handler
	ch      chan []int64
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
	timeout time.Duration
}

// NewRunner starts workers immediately. Suggested: buf=1024, workers=2.
func NewRunner(handle Handler, buf, workers int, perBatch time.Duration) *Runner {
	if buf < 1 {
		buf = 1
	}
	if workers < 1 {
		workers = 1
	}
	if perBatch <= 0 {
		perBatch = 30 * time.Second
	}
	r := &Runner{
		handle:  handle,
		ch:      make(chan []int64, buf),
		done:    make(chan struct{}),
		timeout: perBatch,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

func (r *Runner) Submit(bookIDs []int64) {
	if len(bookIDs) == 0 {
		return
	}
	select {
	case <-r.done:
		log.Printf("[artifacts] runner stopped; dropping batch %v", bookIDs)
		return
	default:
	}
	select {
	case r.ch <- slices.Clone(bookIDs):
	default:
		log.Printf("[artifacts] queue full; dropping batch %v", bookIDs)
	}
}

// Shutdown stops accepting work, lets workers drain what is queued and
// waits for them or for ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.stop.Do(func() { close(r.done) })
	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			for {
				select {
				case ids := <-r.ch:
					r.run(ids)
				default:
					return
				}
			}
		case ids := <-r.ch:
			r.run(ids)
		}
	}
}

func (r *Runner) run(ids []int64) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[artifacts] batch %v panicked: %v", ids, rec)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.handle(ctx, ids); err != nil {
		log.Printf("[artifacts] batch %v failed: %v", ids, err)
	}
}
