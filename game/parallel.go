package game

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// workChunk is a range of arenas for a worker to step.
type workChunk struct {
	ctx        context.Context
	start, end int
	steps      int
}

// Pool steps independent arenas on persistent worker goroutines.
// Each arena is owned by exactly one worker for the duration of a Run.
type Pool struct {
	numWorkers int
	envs       []*Env

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan error     // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewPool creates a pool. numWorkers <= 0 uses GOMAXPROCS.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Pool{numWorkers: numWorkers}
}

// startWorkers launches persistent worker goroutines.
func (p *Pool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan error, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop signals all workers to exit and waits for them.
func (p *Pool) Stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.doneChan <- stepRange(chunk.ctx, p.envs[chunk.start:chunk.end], chunk.steps)
		}
	}
}

// Run advances every arena by steps steps and returns the errors of the
// arenas that failed. A failed arena stops early; the others finish.
func (p *Pool) Run(ctx context.Context, envs []*Env, steps int) error {
	n := len(envs)
	if n == 0 || steps <= 0 {
		return nil
	}

	// Single-threaded when there is nothing to spread
	if n == 1 || p.numWorkers == 1 {
		return stepRange(ctx, envs, steps)
	}

	if !p.running {
		p.startWorkers()
	}
	p.envs = envs

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{ctx: ctx, start: start, end: end, steps: steps}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	var errs []error
	for i := 0; i < chunksDispatched; i++ {
		if err := <-p.doneChan; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stepRange steps each arena in turn.
func stepRange(ctx context.Context, envs []*Env, steps int) error {
	var errs []error
	for _, e := range envs {
		for i := 0; i < steps; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}
			if err := e.Step(ctx); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}
