package executor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-sci/meridian/pkg/types"
)

func TestMPIExecutorDispatchesToRanks(t *testing.T) {
	var mu sync.Mutex
	seenRanks := map[int]bool{}

	comm := NewComm(2, func(rankID int, step *types.Step, ctx types.RunContext) error {
		mu.Lock()
		seenRanks[rankID] = true
		mu.Unlock()
		return nil
	})

	steps := buildLinearSteps(2, func(i int) func(types.RunContext) error {
		return func(types.RunContext) error { return nil }
	})

	NewMPIExecutor(2, nil, comm).RunSteps(steps, Callbacks{})

	for _, s := range steps {
		assert.True(t, s.IsFinished())
	}
	assert.NotEmpty(t, seenRanks)
}

func TestCommStopSendsSentinelToEveryRank(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	comm := NewComm(3, func(rankID int, step *types.Step, ctx types.RunContext) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	// No steps sent; Stop should terminate all three rank goroutines
	// cleanly without blocking.
	comm.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}
