package executor

import (
	"sync"
	"time"

	"github.com/meridian-sci/meridian/pkg/types"
)

// workItem is the per-step function a pool-based executor actually runs:
// a thread pool calls the step's own Run; a queue executor submits it to
// a queue and polls; an MPI executor dispatches it to a rank. Each is
// handed the worker context so it can report GPUs/worker id onward.
type workItem func(ctx types.RunContext, step *types.Step) error

// runPool is the shared dispatcher behind ThreadPoolExecutor,
// QueueExecutor and MPIExecutor: it owns the running/free-node
// bookkeeping that ThreadStepExecutor.runSteps performs with a shared
// lock, translated into a worker-pool of goroutines reporting completion
// over a channel instead of busy-polling thread liveness.
func runPool(steps []*types.Step, numWorkers int, gpuDict map[int][]int, checkInterval time.Duration, work workItem, cb Callbacks) {
	type doneMsg struct {
		node int
		step *types.Step
	}

	done := make(chan doneMsg, numWorkers)
	var mu sync.Mutex
	running := make(map[int]*types.Step, numWorkers)
	free := make([]int, numWorkers)
	for i := range free {
		free[i] = i
	}

	launch := func(node int, step *types.Step) {
		step.Status = types.StatusRunning
		if cb.OnStepStarted != nil {
			cb.OnStepStarted(step)
		}
		go func() {
			runStep(step, types.RunContext{WorkerID: node, GPUs: gpuDict[node]}, work)
			done <- doneMsg{node: node, step: step}
		}()
	}

	dispatch := func() {
		for len(free) > 0 {
			runnable := getRunnable(steps, len(free))
			if len(runnable) == 0 {
				return
			}
			for _, step := range runnable {
				node := free[len(free)-1]
				free = free[:len(free)-1]
				running[node] = step
				launch(node, step)
			}
		}
	}

	mu.Lock()
	dispatch()
	mu.Unlock()

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

loop:
	for {
		mu.Lock()
		stillRunning := len(running) > 0
		pending := arePending(steps)
		mu.Unlock()
		if !stillRunning && !pending {
			break
		}

		select {
		case d := <-done:
			mu.Lock()
			delete(running, d.node)
			free = append(free, d.node)
			mu.Unlock()

			doContinue := true
			if cb.OnStepFinished != nil {
				doContinue = cb.OnStepFinished(d.step)
			}
			if !doContinue {
				break loop
			}

			mu.Lock()
			dispatch()
			mu.Unlock()
		case <-ticker.C:
			if cb.OnCheck != nil {
				cb.OnCheck()
			}
		}
	}

	if cb.OnCheck != nil {
		cb.OnCheck()
	}
}

// ThreadPoolExecutor runs steps in parallel across a fixed number of
// goroutine workers, partitioning any configured GPUs among them. Ported
// from ThreadStepExecutor.
type ThreadPoolExecutor struct {
	numWorkers    int
	gpuDict       map[int][]int
	checkInterval time.Duration
}

// NewThreadPoolExecutor builds a thread-pool executor with nThreads
// workers and gpuList partitioned across them.
func NewThreadPoolExecutor(nThreads int, gpuList []int) *ThreadPoolExecutor {
	return &ThreadPoolExecutor{
		numWorkers:    nThreads,
		gpuDict:       partitionGPUs(gpuList, nThreads),
		checkInterval: 5 * time.Second,
	}
}

func (e *ThreadPoolExecutor) RunSteps(steps []*types.Step, cb Callbacks) {
	runPool(steps, e.numWorkers, e.gpuDict, e.checkInterval, func(ctx types.RunContext, s *types.Step) error {
		return s.Run(ctx)
	}, cb)
}
