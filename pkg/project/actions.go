package project

import (
	"time"

	"github.com/meridian-sci/meridian/pkg/types"
)

// In the original, launchProtocol/scheduleProtocol/stopProtocol/
// resetProtocol/continueProtocol/deleteProtocol/copyProtocol/
// exportProtocols/loadProtocols are all methods on Project itself; here
// they live on Scheduler (pkg/scheduler) since that's the component
// spec names them under. These wrappers keep Project the single
// entry point callers (cmd/meridian, pkg/api) use, while also updating
// the project's last-run timestamp the way the original's
// _storeCreationTime/lastRunTime bookkeeping does around a launch.

// NewProtocol instantiates a fresh, unsaved protocol of the given kind.
func (p *Project) NewProtocol(className string) (*types.Protocol, error) {
	return p.registry.New(className)
}

// LaunchProtocol persists and starts p, or schedules it if it declares
// prerequisites.
func (p *Project) LaunchProtocol(protocol *types.Protocol, scheduled bool) error {
	if err := p.scheduler.LaunchProtocol(protocol, scheduled); err != nil {
		return err
	}
	p.touchLastRunTime()
	return nil
}

// ScheduleProtocol marks protocol SCHEDULED pending the given prerequisites.
func (p *Project) ScheduleProtocol(protocol *types.Protocol, prerequisites []int64, initialSleep time.Duration) error {
	if err := p.scheduler.ScheduleProtocol(protocol, prerequisites, initialSleep); err != nil {
		return err
	}
	p.touchLastRunTime()
	return nil
}

// StopProtocol aborts protocol.
func (p *Project) StopProtocol(protocol *types.Protocol, stop func(*types.Protocol) error) error {
	return p.scheduler.StopProtocol(protocol, stop)
}

// ResetProtocol clears protocol's run state so a later launch reruns it
// from scratch.
func (p *Project) ResetProtocol(protocol *types.Protocol, stop func(*types.Protocol) error) error {
	return p.scheduler.ResetProtocol(protocol, stop)
}

// ContinueProtocol relaunches a protocol waiting on an interactive step.
func (p *Project) ContinueProtocol(protocol *types.Protocol) error {
	return p.scheduler.ContinueProtocol(protocol)
}

// DeleteProtocol removes one or more protocols and the relations they own.
func (p *Project) DeleteProtocol(protocols ...*types.Protocol) error {
	return p.scheduler.DeleteProtocol(protocols...)
}

// CopyProtocol clones a single protocol's definition.
func (p *Project) CopyProtocol(protocol *types.Protocol) (*types.Protocol, error) {
	return p.scheduler.CopyProtocol(protocol)
}

// CopyProtocols clones a set of protocols, rewiring their internal
// pointer dependencies to the new clones.
func (p *Project) CopyProtocols(protocols []*types.Protocol) ([]*types.Protocol, error) {
	return p.scheduler.CopyProtocols(protocols)
}

// ExportProtocols serializes protocols to the workflow JSON wire format.
func (p *Project) ExportProtocols(protocols []*types.Protocol) ([]byte, error) {
	return p.scheduler.ExportProtocols(protocols)
}

// ImportProtocols deserializes a workflow JSON document, persisting each
// protocol it describes into this project.
func (p *Project) ImportProtocols(data []byte) ([]*types.Protocol, error) {
	imported, err := p.scheduler.ImportProtocols(data)
	if err != nil {
		return nil, err
	}
	p.touchLastRunTime()
	return imported, nil
}

func (p *Project) touchLastRunTime() {
	p.lastRunTime = time.Now()
}

// LastRunTime reports when a run was last launched or scheduled in this
// project.
func (p *Project) LastRunTime() time.Time { return p.lastRunTime }
