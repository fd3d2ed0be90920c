package executor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sci/meridian/pkg/types"
)

func TestGetRunnableRespectsPrerequisites(t *testing.T) {
	steps := []*types.Step{
		{Index: 1, Status: types.StatusNew},
		{Index: 2, Status: types.StatusNew, Prerequisites: []int{1}},
	}
	runnable := getRunnable(steps, 2)
	require.Len(t, runnable, 1)
	assert.Equal(t, 1, runnable[0].Index)

	steps[0].Status = types.StatusFinished
	runnable = getRunnable(steps, 2)
	require.Len(t, runnable, 1)
	assert.Equal(t, 2, runnable[0].Index)
}

func TestArePending(t *testing.T) {
	assert.False(t, arePending([]*types.Step{{Status: types.StatusFinished}}))
	assert.True(t, arePending([]*types.Step{{Status: types.StatusRunning}}))
	assert.True(t, arePending([]*types.Step{{Status: types.StatusWaiting}}))
}

func TestPartitionGPUsMoreGpusThanThreads(t *testing.T) {
	dict := partitionGPUs([]int{0, 1, 2, 3, 4, 5}, 3)
	assert.Equal(t, []int{0, 1}, dict[0])
	assert.Equal(t, []int{2, 3}, dict[1])
	assert.Equal(t, []int{4, 5}, dict[2])
}

func TestPartitionGPUsFewerGpusThanThreads(t *testing.T) {
	dict := partitionGPUs([]int{0, 1}, 5)
	for node := 0; node < 5; node++ {
		assert.Len(t, dict[node], 1)
	}
}

func TestPartitionGPUsNoGpus(t *testing.T) {
	dict := partitionGPUs(nil, 4)
	assert.Empty(t, dict)
}

func buildLinearSteps(n int, work func(i int) func(types.RunContext) error) []*types.Step {
	steps := make([]*types.Step, n)
	for i := 0; i < n; i++ {
		idx := i + 1
		prereqs := []int(nil)
		if idx > 1 {
			prereqs = []int{idx - 1}
		}
		steps[i] = &types.Step{Index: idx, Status: types.StatusNew, Prerequisites: prereqs, Run: work(idx)}
	}
	return steps
}

func TestSerialExecutorRunsAllStepsInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int
	steps := buildLinearSteps(3, func(i int) func(types.RunContext) error {
		return func(ctx types.RunContext) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}
	})

	NewSerialExecutor(nil).RunSteps(steps, Callbacks{})

	assert.Equal(t, []int{1, 2, 3}, order)
	for _, s := range steps {
		assert.True(t, s.IsFinished())
	}
}

func TestSerialExecutorStepFailurePropagates(t *testing.T) {
	steps := []*types.Step{
		{Index: 1, Status: types.StatusNew, Run: func(types.RunContext) error { return fmt.Errorf("boom") }},
	}
	NewSerialExecutor(nil).RunSteps(steps, Callbacks{})
	assert.Equal(t, types.StatusFailed, steps[0].Status)
	assert.Equal(t, "boom", steps[0].ErrorMessage)
}

func TestThreadPoolExecutorRunsIndependentStepsConcurrently(t *testing.T) {
	var mu sync.Mutex
	ran := map[int]bool{}

	steps := []*types.Step{
		{Index: 1, Status: types.StatusNew, Run: func(ctx types.RunContext) error {
			mu.Lock()
			ran[1] = true
			mu.Unlock()
			return nil
		}},
		{Index: 2, Status: types.StatusNew, Run: func(ctx types.RunContext) error {
			mu.Lock()
			ran[2] = true
			mu.Unlock()
			return nil
		}},
	}

	NewThreadPoolExecutor(2, nil).RunSteps(steps, Callbacks{})

	assert.True(t, ran[1])
	assert.True(t, ran[2])
	for _, s := range steps {
		assert.True(t, s.IsFinished())
	}
}

func TestThreadPoolExecutorAssignsPartitionedGpus(t *testing.T) {
	var mu sync.Mutex
	var seenGPUs [][]int

	steps := buildLinearSteps(1, func(i int) func(types.RunContext) error {
		return func(ctx types.RunContext) error {
			mu.Lock()
			seenGPUs = append(seenGPUs, ctx.GPUs)
			mu.Unlock()
			return nil
		}
	})

	NewThreadPoolExecutor(1, []int{0, 1}).RunSteps(steps, Callbacks{})

	require.Len(t, seenGPUs, 1)
	assert.Equal(t, []int{0, 1}, seenGPUs[0])
}

func TestThreadPoolExecutorOnStepFinishedCanStopEarly(t *testing.T) {
	steps := buildLinearSteps(3, func(i int) func(types.RunContext) error {
		return func(types.RunContext) error { return nil }
	})

	var finishedCount int
	NewThreadPoolExecutor(1, nil).RunSteps(steps, Callbacks{
		OnStepFinished: func(s *types.Step) bool {
			finishedCount++
			return finishedCount < 1
		},
	})

	assert.Equal(t, 1, finishedCount)
	assert.True(t, steps[0].IsFinished())
	assert.Equal(t, types.StatusNew, steps[1].Status, "scheduling should have stopped after the first step")
}

func TestOnCheckCallbackFiresAtLeastOnce(t *testing.T) {
	steps := buildLinearSteps(1, func(i int) func(types.RunContext) error {
		return func(types.RunContext) error { return nil }
	})

	var checks int
	NewSerialExecutor(nil).RunSteps(steps, Callbacks{
		OnCheck: func() { checks++ },
	})
	assert.GreaterOrEqual(t, checks, 1)
}

func TestTimingFieldsAreSet(t *testing.T) {
	steps := buildLinearSteps(1, func(i int) func(types.RunContext) error {
		return func(types.RunContext) error {
			time.Sleep(time.Millisecond)
			return nil
		}
	})
	NewSerialExecutor(nil).RunSteps(steps, Callbacks{})
	assert.False(t, steps[0].StartedAt.IsZero())
	assert.False(t, steps[0].FinishedAt.IsZero())
	assert.True(t, steps[0].FinishedAt.After(steps[0].StartedAt) || steps[0].FinishedAt.Equal(steps[0].StartedAt))
}
