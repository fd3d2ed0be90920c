package executor

import (
	"time"

	"github.com/meridian-sci/meridian/pkg/types"
)

// SerialExecutor runs one step at a time on the calling goroutine. Ported
// from StepExecutor.runSteps: the base case with no parallelism, used for
// protocols that declare a single thread and no queue.
type SerialExecutor struct {
	gpuList       []int
	checkInterval time.Duration
}

// NewSerialExecutor builds a serial executor. gpuList, if non-empty, is
// handed unpartitioned to every step since there is only ever one worker.
func NewSerialExecutor(gpuList []int) *SerialExecutor {
	return &SerialExecutor{gpuList: gpuList, checkInterval: 3 * time.Second}
}

func (e *SerialExecutor) RunSteps(steps []*types.Step, cb Callbacks) {
	lastCheck := time.Now()

	for {
		runnable := getRunnable(steps, 1)
		if len(runnable) > 0 {
			step := runnable[0]
			step.Status = types.StatusRunning
			if cb.OnStepStarted != nil {
				cb.OnStepStarted(step)
			}
			runStep(step, types.RunContext{GPUs: e.gpuList}, func(ctx types.RunContext, s *types.Step) error {
				return s.Run(ctx)
			})
			var doContinue bool = true
			if cb.OnStepFinished != nil {
				doContinue = cb.OnStepFinished(step)
			}
			if !doContinue {
				break
			}
		} else if arePending(steps) {
			time.Sleep(500 * time.Millisecond)
		} else {
			break
		}

		if time.Since(lastCheck) > e.checkInterval {
			if cb.OnCheck != nil {
				cb.OnCheck()
			}
			lastCheck = time.Now()
		}
	}

	if cb.OnCheck != nil {
		cb.OnCheck()
	}
}
