package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sci/meridian/pkg/host"
	"github.com/meridian-sci/meridian/pkg/types"
)

type stubSubmitter struct {
	jobID string
	err   error
}

func (s stubSubmitter) Submit(queue host.QueueSystem, jobScript, cwd string) (string, error) {
	return s.jobID, s.err
}

func TestNewJobScriptNameIsUnique(t *testing.T) {
	a := newJobScriptName("align")
	b := newJobScriptName("align")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "align-")
}

func TestQueueExecutorFailsWhenSubmitReturnsNoJobID(t *testing.T) {
	cfg := &host.Config{Name: "cluster", Queues: map[string]host.QueueSystem{
		"slurm": {Name: "slurm", SubmitCommand: "sbatch %s", CheckCommand: "sacct %s", JobDoneRegex: "DONE"},
	}}
	require.NotNil(t, cfg)

	e := NewQueueExecutor(1, nil, cfg, "slurm", stubSubmitter{jobID: ""}, func(s *types.Step, ctx types.RunContext) (string, string, error) {
		return "/tmp/job.job", "/tmp", nil
	})

	err := e.runOnQueue(types.RunContext{}, &types.Step{})
	assert.Error(t, err)
}

func TestQueueExecutorUnknownQueueErrors(t *testing.T) {
	cfg := &host.Config{Name: "cluster"}
	e := NewQueueExecutor(1, nil, cfg, "missing", stubSubmitter{jobID: "123"}, func(s *types.Step, ctx types.RunContext) (string, string, error) {
		return "/tmp/job.job", "/tmp", nil
	})
	err := e.runOnQueue(types.RunContext{}, &types.Step{})
	assert.Error(t, err)
}
