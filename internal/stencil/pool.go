package stencil

import "runtime"

// Interior grid points are independent within one sweep, so a step can
// be split across ranges of grid columns. A small persistent pool
// avoids spawning goroutines per time step; nt is typically in the
// thousands.

type sweepTask struct {
	run    func(lo, hi int)
	lo, hi int
	done   chan struct{}
}

type sweepPool struct {
	size      int
	tasks     chan sweepTask
	doneSlots chan chan struct{}
}

func newSweepPool() *sweepPool {
	size := runtime.GOMAXPROCS(0)
	if size < 1 {
		size = 1
	}
	p := &sweepPool{
		size:      size,
		tasks:     make(chan sweepTask, size*2),
		doneSlots: make(chan chan struct{}, size),
	}
	// One sweep issues at most size tasks, so a completion send can
	// never block even with every slot checked out concurrently.
	for i := 0; i < size; i++ {
		p.doneSlots <- make(chan struct{}, size)
	}
	for w := 0; w < size; w++ {
		go func() {
			for task := range p.tasks {
				task.run(task.lo, task.hi)
				task.done <- struct{}{}
			}
		}()
	}
	return p
}

var sweepWorkPool = newSweepPool()

// parallelSweep runs fn over [lo, hi) split across up to workers
// column ranges. workers <= 1 runs inline on the calling goroutine.
func parallelSweep(workers, lo, hi int, fn func(lo, hi int)) {
	n := hi - lo
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers > sweepWorkPool.size {
		workers = sweepWorkPool.size
	}
	if workers <= 1 {
		fn(lo, hi)
		return
	}

	done := <-sweepWorkPool.doneSlots
	chunk := (n + workers - 1) / workers
	issued := 0
	for start := lo; start < hi; start += chunk {
		end := start + chunk
		if end > hi {
			end = hi
		}
		sweepWorkPool.tasks <- sweepTask{run: fn, lo: start, hi: end, done: done}
		issued++
	}
	for i := 0; i < issued; i++ {
		<-done
	}
	sweepWorkPool.doneSlots <- done
}
