package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sci/meridian/pkg/types"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(types.StatusSaved, types.StatusLaunched))
	assert.True(t, CanTransition(types.StatusRunning, types.StatusFinished))
	assert.False(t, CanTransition(types.StatusFinished, types.StatusRunning))
	assert.True(t, CanTransition(types.StatusRunning, types.StatusRunning))
}

func TestTransitionSetsEndedAt(t *testing.T) {
	p := &types.Protocol{Status: types.StatusRunning}
	require.NoError(t, Transition(p, types.StatusFinished))
	assert.Equal(t, types.StatusFinished, p.Status)
	assert.False(t, p.EndedAt.IsZero())
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	p := &types.Protocol{Status: types.StatusFinished}
	err := Transition(p, types.StatusRunning)
	assert.Error(t, err)
}

type fakeStore struct {
	updated *types.Protocol
}

func (f *fakeStore) UpdateProtocol(p *types.Protocol) error {
	f.updated = p
	return nil
}

type fakeLocal struct {
	protocol *types.Protocol
	err      error
	calls    int
}

func (f *fakeLocal) GetProtocol(id int64) (*types.Protocol, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.protocol, nil
}

func TestUpdateProtocolMergesAndPreservesOwnedFields(t *testing.T) {
	fs := &fakeStore{}
	mgr := NewManager(fs, false)

	p := &types.Protocol{ID: 7, JobID: "job-1", Label: "my run", Comment: "note",
		Status: types.StatusRunning, Outputs: map[string]any{"localOnly": 1}}

	local := &fakeLocal{protocol: &types.Protocol{
		ID: 7, JobID: "stale", Label: "stale label", Status: types.StatusFinished,
		Outputs: map[string]any{"result": "images.mrc"}, UpdatedAt: time.Now(),
	}}

	res := mgr.UpdateProtocol(p, local, false, false)

	assert.Equal(t, Updated, res)
	assert.Equal(t, types.StatusFinished, p.Status)
	assert.Equal(t, "job-1", p.JobID, "jobId is owned by the caller, not overwritten by the refresh")
	assert.Equal(t, "my run", p.Label)
	assert.Contains(t, p.Outputs, "result")
	assert.Contains(t, p.Outputs, "localOnly", "outputs added locally (e.g. from the GUI) must survive the merge")
	assert.Same(t, p, fs.updated)
}

func TestUpdateProtocolSkipsWhenAlreadyFresh(t *testing.T) {
	fs := &fakeStore{}
	mgr := NewManager(fs, false)

	now := time.Now()
	p := &types.Protocol{ID: 1, UpdatedAt: now}
	local := &fakeLocal{protocol: &types.Protocol{ID: 1, UpdatedAt: now.Add(-time.Hour)}}

	res := mgr.UpdateProtocol(p, local, false, true)
	assert.Equal(t, NotUpdatedUnnecessary, res)
}

func TestUpdateProtocolReadOnlyShortCircuits(t *testing.T) {
	fs := &fakeStore{}
	mgr := NewManager(fs, true)
	p := &types.Protocol{ID: 1}

	res := mgr.UpdateProtocol(p, &fakeLocal{}, false, false)
	assert.Equal(t, NotUpdatedReadOnly, res)
	assert.Nil(t, fs.updated)
}

func TestUpdateProtocolGivesUpAfterRetriesAndMarksFailed(t *testing.T) {
	fs := &fakeStore{}
	mgr := NewManager(fs, false)
	p := &types.Protocol{ID: 9, Status: types.StatusRunning}
	local := &fakeLocal{err: errors.New("db locked")}

	res := mgr.UpdateProtocol(p, local, false, false)

	assert.Equal(t, NotUpdatedError, res)
	assert.Equal(t, types.StatusFailed, p.Status)
	assert.Equal(t, updateRetries+1, local.calls)
}

func TestCheckPIDSkipsZeroPid(t *testing.T) {
	p := &types.Protocol{Status: types.StatusRunning, PID: 0}
	CheckPID(p)
	assert.Equal(t, types.StatusRunning, p.Status)
}

func TestCheckPIDSkipsQueuedAndInteractive(t *testing.T) {
	p := &types.Protocol{Status: types.StatusRunning, PID: 999999, UseQueue: true}
	CheckPID(p)
	assert.Equal(t, types.StatusRunning, p.Status, "queued protocols are checked by the queue system, not locally")

	p2 := &types.Protocol{Status: types.StatusInteractive, PID: 999999}
	CheckPID(p2)
	assert.Equal(t, types.StatusInteractive, p2.Status)
}

func TestCheckPIDMarksFailedWhenProcessGone(t *testing.T) {
	p := &types.Protocol{Status: types.StatusRunning, PID: 999999}
	CheckPID(p)
	assert.Equal(t, types.StatusFailed, p.Status)
	assert.NotEmpty(t, p.ErrorMessage)
}
