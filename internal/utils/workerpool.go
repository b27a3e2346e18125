// Package utils holds small pieces of concurrency plumbing shared by the
// reference front-end — presently just the worker pool that turns
// accepted TCP connections into tomb-supervised goroutines.
package utils

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunction is the unit of work a pool runs per task. Returning a
// non-nil error ends the worker and kills the tomb it runs in, which
// stops every goroutine supervised by that tomb.
type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool maintains a fixed number of tomb-supervised goroutines, each
// pulling tasks off a shared channel.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool constructs a pool sized for size concurrent workers.
func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// AddTask enqueues a task for a worker to pick up.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup blocks, keeping the pool topped up with active workers until t
// starts dying.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < pool.n {
				t.Go(func() error {
					err := pool.worker(t, work)
					active--
					return err
				})
				active++
			}
		}
	}
}

// worker waits for a single task and runs it, then returns — Setup spawns
// a replacement for as long as the tomb is alive.
func (pool *WorkerPool) worker(t *tomb.Tomb, work WorkerFunction) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-pool.tasks:
		if err := work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting on error")
			return err
		}
	}
	return nil
}
