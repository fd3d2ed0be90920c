package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsActive(t *testing.T) {
	active := []Status{StatusLaunched, StatusRunning, StatusScheduled, StatusInteractive, StatusWaiting}
	for _, s := range active {
		assert.True(t, s.IsActive(), "expected %s to be active", s)
	}

	inactive := []Status{StatusNew, StatusSaved, StatusFinished, StatusFailed, StatusAborted}
	for _, s := range inactive {
		assert.False(t, s.IsActive(), "expected %s to not be active", s)
	}
}

func TestStatusIsModifiable(t *testing.T) {
	assert.True(t, StatusSaved.IsModifiable())
	assert.True(t, StatusScheduled.IsModifiable())
	assert.False(t, StatusRunning.IsModifiable())
	assert.False(t, StatusFinished.IsModifiable())
}

func TestPointerString(t *testing.T) {
	p := Pointer{ObjectID: 7, ExtendedPath: "outputImages"}
	assert.Equal(t, "7.outputImages", p.String())

	bare := Pointer{ObjectID: 3}
	assert.Equal(t, "3", bare.String())

	assert.True(t, Pointer{}.IsZero())
	assert.False(t, p.IsZero())
}

func TestProtocolClone(t *testing.T) {
	p := &Protocol{
		ID:            1,
		Label:         "import movies",
		Status:        StatusFinished,
		Prerequisites: []int64{4, 5},
		QueueParams:   map[string]string{"queue": "gpu"},
		Inputs:        map[string]any{"in": Pointer{ObjectID: 4}},
		Outputs:       map[string]any{"out": 99},
		Steps:         []Step{{Index: 1}},
	}

	clone := p.Clone()

	assert.Equal(t, int64(0), clone.ID)
	assert.Equal(t, StatusNew, clone.Status)
	assert.Nil(t, clone.Outputs)
	assert.Nil(t, clone.Steps)
	assert.Equal(t, p.Label, clone.Label)
	assert.Equal(t, p.Inputs, clone.Inputs)

	// mutating the clone's maps must not affect the original
	clone.QueueParams["queue"] = "cpu"
	assert.Equal(t, "gpu", p.QueueParams["queue"])
}
