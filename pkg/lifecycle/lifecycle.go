// Package lifecycle implements the Protocol Lifecycle Manager: status
// transitions, the update cycle that rehydrates a protocol from its own
// local store copy, and the liveness check that detects a locally
// running protocol whose process has died without reporting status.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/meridian-sci/meridian/pkg/log"
	"github.com/meridian-sci/meridian/pkg/store"
	"github.com/meridian-sci/meridian/pkg/types"
)

// UpdateResult mirrors pyworkflow's pw.NOT_UPDATED_* / PROTOCOL_UPDATED
// return codes so callers can distinguish "nothing to do" from "updated"
// from "gave up".
type UpdateResult int

const (
	// Updated means the protocol's in-memory state now reflects its own
	// local store copy.
	Updated UpdateResult = iota
	// NotUpdatedUnnecessary means the protocol was already at least as
	// fresh as its local store copy; the copy was read but nothing was
	// merged or persisted.
	NotUpdatedUnnecessary
	// NotUpdatedReadOnly means the owning project is read-only.
	NotUpdatedReadOnly
	// NotUpdatedError means every retry failed and the protocol was
	// marked FAILED.
	NotUpdatedError
)

const (
	updateRetries  = 3
	updateInterval = 500 * time.Millisecond
)

// transitions enumerates which statuses a protocol may move to from a
// given current status. The ended statuses (FINISHED, FAILED, ABORTED)
// accept only a move back to SCHEDULED.
var transitions = map[types.Status][]types.Status{
	types.StatusNew:         {types.StatusSaved, types.StatusLaunched, types.StatusScheduled},
	types.StatusSaved:       {types.StatusLaunched, types.StatusScheduled},
	types.StatusScheduled:   {types.StatusLaunched, types.StatusAborted},
	types.StatusLaunched:    {types.StatusRunning, types.StatusFailed, types.StatusAborted},
	types.StatusRunning:     {types.StatusFinished, types.StatusFailed, types.StatusAborted, types.StatusInteractive, types.StatusWaiting},
	types.StatusInteractive: {types.StatusFinished, types.StatusFailed, types.StatusAborted, types.StatusLaunched},
	types.StatusWaiting:     {types.StatusRunning, types.StatusFailed, types.StatusAborted},
	types.StatusFinished:    {types.StatusScheduled},
	types.StatusFailed:      {types.StatusScheduled},
	types.StatusAborted:     {types.StatusScheduled},
}

// CanTransition reports whether a protocol may move from 'from' to 'to'.
func CanTransition(from, to types.Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves p.Status to to, returning an error if the move is not
// allowed by the transition table.
func Transition(p *types.Protocol, to types.Status) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("protocol %d: illegal transition %s -> %s", p.ID, p.Status, to)
	}
	p.Status = to
	if !to.IsActive() {
		p.EndedAt = time.Now()
	}
	return nil
}

// Manager drives the update cycle and liveness checks for protocols owned
// by a single project store.
type Manager struct {
	projectStore Store
	readOnly     bool
}

// Store is the subset of store.Store the lifecycle manager needs, kept
// narrow so tests can fake it without a full bbolt-backed POS.
type Store interface {
	UpdateProtocol(p *types.Protocol) error
}

// NewManager constructs a Manager bound to a project's store.
func NewManager(s Store, readOnly bool) *Manager {
	return &Manager{projectStore: s, readOnly: readOnly}
}

// localStoreReader abstracts reading a protocol back from its own run
// directory's store copy. Production code supplies a *store.BoltStore
// opened against Runs/<id>_<Class>/project.db; tests can substitute a
// stub.
type localStoreReader interface {
	GetProtocol(id int64) (*types.Protocol, error)
}

// UpdateProtocol rehydrates p from its own local store copy, the way a
// long-running or queued protocol reports progress back to the project:
// read the copy it is writing to, merge GUI-added outputs, and preserve
// the handful of fields the project owns (JobID, label, comment).
//
// checkLiveness additionally runs the pid probe once the merge succeeds,
// mirroring checkPid being invoked only at the end of a successful
// refresh.
func (m *Manager) UpdateProtocol(p *types.Protocol, local localStoreReader, checkLiveness, skipIfFresh bool) UpdateResult {
	if m.readOnly {
		return NotUpdatedReadOnly
	}

	logger := log.WithProtocolID(p.ID)

	jobID, label, comment := p.JobID, p.Label, p.Comment

	for attempt := 0; attempt <= updateRetries; attempt++ {
		fresh, err := local.GetProtocol(p.ID)
		if err == nil {
			if skipIfFresh && isUpToDate(p, fresh) {
				return NotUpdatedUnnecessary
			}

			localOutputs := p.Outputs
			mergeProtocol(p, fresh)
			for k, v := range localOutputs {
				if _, ok := p.Outputs[k]; !ok {
					p.Outputs[k] = v
				}
			}

			p.JobID, p.Label, p.Comment = jobID, label, comment

			if checkLiveness {
				CheckPID(p)
			}

			if err := m.projectStore.UpdateProtocol(p); err != nil {
				logger.Warn().Err(err).Msg("update protocol: persist to project store failed")
			}
			return Updated
		}

		if attempt == updateRetries {
			logger.Error().Err(err).Msg("update protocol: giving up after retries, marking failed")
			p.Status = types.StatusFailed
			p.ErrorMessage = err.Error()
			_ = m.projectStore.UpdateProtocol(p)
			return NotUpdatedError
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("couldn't update protocol from its own database, retrying")
		time.Sleep(updateInterval)
	}

	return NotUpdatedError
}

// isUpToDate reports whether p's own record is already at least as fresh
// as fresh's, so the caller can skip a redundant merge.
func isUpToDate(p, fresh *types.Protocol) bool {
	return !fresh.UpdatedAt.After(p.UpdatedAt)
}

// mergeProtocol copies fresh's runtime fields onto p, excluding inputs
// (the project's copy of input pointers is authoritative, not the
// protocol's own, since inputs may have been resolved relative to a
// working directory the project no longer sees the same way).
func mergeProtocol(p, fresh *types.Protocol) {
	p.Status = fresh.Status
	p.Steps = fresh.Steps
	p.Outputs = fresh.Outputs
	p.UpdatedAt = fresh.UpdatedAt
	p.EndedAt = fresh.EndedAt
	p.ErrorMessage = fresh.ErrorMessage
	p.PID = fresh.PID
}
