// Package executor implements the Step Executor family: serial,
// thread-pool, queue-submit and MPI execution of a protocol's steps,
// with GPU partitioning across concurrent workers. Grounded directly on
// pyworkflow/protocol/executor.py's
// StepExecutor/ThreadStepExecutor/QueueStepExecutor/MPIStepExecutor
// hierarchy.
package executor

import (
	"time"

	"github.com/meridian-sci/meridian/pkg/types"
)

// Callbacks lets the caller (the protocol's run loop) observe step
// transitions and inject periodic bookkeeping, mirroring
// stepStartedCallback/stepFinishedCallback/stepsCheckCallback.
type Callbacks struct {
	// OnStepStarted is called just before a step begins running.
	OnStepStarted func(step *types.Step)
	// OnStepFinished is called once a step reaches a terminal state.
	// Returning false stops scheduling further steps (e.g. on fatal
	// failure with no continue-on-error policy).
	OnStepFinished func(step *types.Step) bool
	// OnCheck is invoked periodically (and once at the end) so the
	// caller can pick up new streaming steps or persist progress.
	OnCheck func()
}

// Executor runs a protocol's steps to completion, respecting
// prerequisite ordering.
type Executor interface {
	RunSteps(steps []*types.Step, cb Callbacks)
}

// getRunnable returns up to n steps that are NEW and whose prerequisites
// (1-based indices into steps) have all finished.
func getRunnable(steps []*types.Step, n int) []*types.Step {
	var out []*types.Step
	for i := range steps {
		s := steps[i]
		if s.Status != types.StatusNew {
			continue
		}
		ready := true
		for _, idx := range s.Prerequisites {
			if idx < 1 || idx > len(steps) || !steps[idx-1].IsFinished() {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, s)
			if len(out) == n {
				break
			}
		}
	}
	return out
}

// arePending reports whether any step is running or waiting, meaning
// more steps may still become runnable.
func arePending(steps []*types.Step) bool {
	for _, s := range steps {
		if s.IsRunning() || s.IsWaiting() {
			return true
		}
	}
	return false
}

// partitionGPUs distributes gpuList across nThreads workers. When there
// are more GPUs than threads, each thread gets a contiguous chunk; when
// there are fewer (or equal), the list is repeated and truncated so every
// thread gets exactly one GPU. Ported verbatim from
// ThreadStepExecutor.__init__'s gpuDict construction.
func partitionGPUs(gpuList []int, nThreads int) map[int][]int {
	dict := make(map[int][]int, nThreads)
	if len(gpuList) == 0 || nThreads == 0 {
		return dict
	}

	nGpu := len(gpuList)
	if nGpu > nThreads {
		chunk := nGpu / nThreads
		for node := 0; node < nThreads; node++ {
			dict[node] = append([]int(nil), gpuList[node*chunk:(node+1)*chunk]...)
		}
		return dict
	}

	list := gpuList
	if nThreads > nGpu {
		reps := nThreads/nGpu + 1
		expanded := make([]int, 0, reps*nGpu)
		for i := 0; i < reps; i++ {
			expanded = append(expanded, gpuList...)
		}
		list = expanded[:nThreads]
	}
	for node := 0; node < nThreads && node < len(list); node++ {
		dict[node] = []int{list[node]}
	}
	return dict
}

// runStep executes a single step's work, recording timestamps and the
// terminal status. The caller is responsible for marking the step
// RUNNING (and invoking OnStepStarted) beforehand.
func runStep(step *types.Step, ctx types.RunContext, work func(types.RunContext, *types.Step) error) {
	step.StartedAt = time.Now()
	err := work(ctx, step)
	step.FinishedAt = time.Now()
	if err != nil {
		step.Status = types.StatusFailed
		step.ErrorMessage = err.Error()
	} else {
		step.Status = types.StatusFinished
	}
}
