package scheduler

import (
	"fmt"
	"time"

	"dario.cat/mergo"

	"github.com/meridian-sci/meridian/pkg/executor"
	"github.com/meridian-sci/meridian/pkg/lifecycle"
	"github.com/meridian-sci/meridian/pkg/types"
)

// checkModificationAllowed refuses the operation if the project is
// read-only or any of protocols is depended on by a run outside the set
// being modified. Ported from _checkModificationAllowed/
// _checkProtocolsDependencies.
func (s *Scheduler) checkModificationAllowed(protocols []*types.Protocol, msg string) error {
	if s.readOnly {
		return fmt.Errorf("%s: %w", msg, ErrReadOnly)
	}

	inSet := make(map[int64]bool, len(protocols))
	for _, p := range protocols {
		inSet[p.ID] = true
	}

	pg, err := s.RunsGraph()
	if err != nil {
		return err
	}

	var deps []string
	for _, p := range protocols {
		n, ok := pg.Node(p.ID)
		if !ok {
			continue
		}
		for _, childNode := range n.Children() {
			child := pg.Protocol(childNode)
			if child == nil || inSet[child.ID] {
				continue
			}
			if child.Status.IsModifiable() {
				continue
			}
			deps = append(deps, fmt.Sprintf("%s depends on %s", child.Label, p.Label))
		}
	}
	if len(deps) > 0 {
		return &ModificationNotAllowedError{Msg: fmt.Sprintf("%s: %v", msg, deps)}
	}
	return nil
}

// LaunchProtocol moves the protocol to LAUNCHED, assigns its working
// directory, copies the project store into it, and stores the protocol.
// It does not build or start an executor. If the protocol declares
// prerequisites and isn't already being launched as part of a schedule
// pass, it is scheduled instead. Ported from launchProtocol.
func (s *Scheduler) LaunchProtocol(p *types.Protocol, scheduled bool) error {
	if len(p.Prerequisites) > 0 && !scheduled {
		return s.ScheduleProtocol(p, p.Prerequisites, 0)
	}

	isRestart := p.RunMode == types.RunModeRestart

	if !scheduled || isRestart {
		if err := s.checkModificationAllowed([]*types.Protocol{p}, "cannot re-launch protocol"); err != nil {
			return err
		}
	}

	if err := lifecycle.Transition(p, types.StatusLaunched); err != nil {
		return err
	}

	if p.WorkingDir == "" {
		p.WorkingDir = workingDir(p.ID, p.ClassName)
	}

	if !scheduled {
		if isRestart {
			if err := s.store.DeleteRelations(p.ID); err != nil {
				return fmt.Errorf("delete relations before restart: %w", err)
			}
		}
		if err := s.store.CopyTo(p.WorkingDir + "/project.db"); err != nil {
			return fmt.Errorf("copy project store into run dir: %w", err)
		}
	}

	p.CreatedAt = firstNonZero(p.CreatedAt, time.Now())
	p.UpdatedAt = time.Now()

	if err := s.store.UpdateProtocol(p); err != nil {
		return err
	}
	s.invalidateRunsGraph()
	return nil
}

// ScheduleProtocol marks a protocol SCHEDULED with the given
// prerequisite ids and copies the project store into its working
// directory. Nothing in this package launches it when the prerequisites
// finish; the background loop only refreshes its status from that copy.
// Ported from scheduleProtocol.
func (s *Scheduler) ScheduleProtocol(p *types.Protocol, prerequisites []int64, initialSleep time.Duration) error {
	isRestart := p.RunMode == types.RunModeRestart

	if err := lifecycle.Transition(p, types.StatusScheduled); err != nil {
		return err
	}
	p.Prerequisites = append(p.Prerequisites, prerequisites...)

	if p.WorkingDir == "" {
		p.WorkingDir = workingDir(p.ID, p.ClassName)
	}
	if isRestart {
		if err := s.store.DeleteRelations(p.ID); err != nil {
			return fmt.Errorf("delete relations before restart: %w", err)
		}
	}
	if err := s.store.CopyTo(p.WorkingDir + "/project.db"); err != nil {
		return fmt.Errorf("copy project store into run dir: %w", err)
	}

	p.UpdatedAt = time.Now()
	if initialSleep > 0 {
		time.Sleep(initialSleep)
	}
	return s.store.UpdateProtocol(p)
}

// StopProtocol aborts a protocol if it is Active. The status is always
// forced to ABORTED even if the underlying executor failed to stop
// cleanly, matching stopProtocol's try/finally shape.
func (s *Scheduler) StopProtocol(p *types.Protocol, stop func(*types.Protocol) error) error {
	var stopErr error
	if p.Status.IsActive() && stop != nil {
		stopErr = stop(p)
	}
	p.Status = types.StatusAborted
	p.EndedAt = time.Now()
	if err := s.store.UpdateProtocol(p); err != nil {
		return err
	}
	s.invalidateRunsGraph()
	return stopErr
}

// ResetProtocol stops an active protocol, then marks it SAVED in RESTART
// mode so a subsequent launch reruns it from scratch. Ported from
// resetProtocol.
func (s *Scheduler) ResetProtocol(p *types.Protocol, stop func(*types.Protocol) error) error {
	if p.Status.IsActive() && stop != nil {
		if err := stop(p); err != nil {
			return err
		}
	}
	p.Status = types.StatusSaved
	p.RunMode = types.RunModeRestart
	p.WorkingDir = ""
	p.JobID = ""
	p.PID = 0
	return s.store.UpdateProtocol(p)
}

// ContinueProtocol relaunches a protocol waiting on an interactive step.
// Ported from continueProtocol.
func (s *Scheduler) ContinueProtocol(p *types.Protocol) error {
	if p.Status != types.StatusInteractive {
		return fmt.Errorf("protocol %d: continueProtocol called on non-interactive status %s", p.ID, p.Status)
	}
	return s.LaunchProtocol(p, true)
}

// DeleteProtocol removes one or more protocols and the relations they
// own, refusing if any is depended upon outside the set. Ported from
// deleteProtocol.
func (s *Scheduler) DeleteProtocol(protocols ...*types.Protocol) error {
	if err := s.checkModificationAllowed(protocols, "cannot delete protocols"); err != nil {
		return err
	}
	for _, p := range protocols {
		if err := s.store.DeleteRelations(p.ID); err != nil {
			return err
		}
		if err := s.store.DeleteProtocol(p.ID); err != nil {
			return err
		}
	}
	s.invalidateRunsGraph()
	return nil
}

// buildExecutor picks the executor family for a protocol: queue if it
// uses a queue, thread-pool if it declares more than one worker, serial
// otherwise. Ported from the dispatch pyworkflow's protocol.job.launch
// performs based on hostConfig/useQueue/numberOfThreads.
func (s *Scheduler) buildExecutor(p *types.Protocol, nThreads int) (executor.Executor, error) {
	hostCfg := s.hosts[p.HostName]
	if hostCfg == nil {
		return executor.NewSerialExecutor(nil), nil
	}

	if p.UseQueue {
		queueName := p.QueueParams["QUEUE_NAME"]
		p.QueueParams = mergeQueueParams(p.QueueParams, hostCfg.QueueDefaults(queueName))
		return executor.NewQueueExecutor(nThreads, hostCfg.GPUList, hostCfg, queueName, executor.CommandSubmitter{}, defaultJobWriter), nil
	}
	if nThreads > 1 {
		return executor.NewThreadPoolExecutor(nThreads, hostCfg.GPUList), nil
	}
	return executor.NewSerialExecutor(hostCfg.GPUList), nil
}

func defaultJobWriter(step *types.Step, ctx types.RunContext) (string, string, error) {
	return "", "", fmt.Errorf("queue job script writer not configured")
}

// mergeQueueParams fills in a host queue's default submit params for any
// key the protocol didn't set explicitly, the per-project values always
// taking precedence. Ported from the merge launch._submit performs
// between hostConfig.getQueuesDefault() and the protocol's own params
// dict before formatting a job script.
func mergeQueueParams(explicit, defaults map[string]string) map[string]string {
	merged := make(map[string]string, len(explicit))
	for k, v := range explicit {
		merged[k] = v
	}
	if err := mergo.Merge(&merged, defaults); err != nil {
		return merged
	}
	return merged
}

func firstNonZero(t time.Time, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}
