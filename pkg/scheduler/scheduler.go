// Package scheduler implements the Project Scheduler: the runs graph,
// launch/schedule/stop/reset/continue/copy/delete algorithms, workflow
// export/import, and the relation-graph queries. The background
// ticker-driven update loop follows the shape of this project's other
// long-running reconciliation loops; the lifecycle algorithms themselves
// follow pyworkflow's project.py.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meridian-sci/meridian/pkg/host"
	"github.com/meridian-sci/meridian/pkg/lifecycle"
	"github.com/meridian-sci/meridian/pkg/log"
	"github.com/meridian-sci/meridian/pkg/metrics"
	"github.com/meridian-sci/meridian/pkg/proto"
	"github.com/meridian-sci/meridian/pkg/store"
	"github.com/meridian-sci/meridian/pkg/types"
)

// ModificationNotAllowedError is returned when an operation would modify
// a protocol that other runs depend on, or the project is read-only.
// Ported from ModificationNotAllowedException.
type ModificationNotAllowedError struct {
	Msg string
}

func (e *ModificationNotAllowedError) Error() string { return e.Msg }

// Scheduler owns a project's store and drives its background update
// cycle, launch/stop/reset actions, and graph queries. One Scheduler per
// open project.
type Scheduler struct {
	store    store.Store
	registry *proto.Registry
	lcm      *lifecycle.Manager
	hosts    map[string]*host.Config
	readOnly bool

	logger zerolog.Logger
	mu     sync.RWMutex
	stopCh chan struct{}

	runsGraphCache *protoGraph
}

// NewScheduler builds a Scheduler bound to a project store and protocol
// kind registry.
func NewScheduler(s store.Store, registry *proto.Registry, hosts map[string]*host.Config, readOnly bool) *Scheduler {
	return &Scheduler{
		store:    s,
		registry: registry,
		lcm:      lifecycle.NewManager(s, readOnly),
		hosts:    hosts,
		readOnly: readOnly,
		logger:   log.WithComponent("scheduler"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background update loop, refreshing every active
// protocol's status from its own local store copy.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop terminates the background update loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateActiveProtocols()
		case <-s.stopCh:
			return
		}
	}
}

// updateActiveProtocols refreshes every Active-status protocol from its
// own local store copy, the periodic analogue of _updateProtocol called
// from a GUI refresh timer.
func (s *Scheduler) updateActiveProtocols() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulerCycleDuration)

	all, err := s.store.ListProtocols()
	if err != nil {
		s.logger.Error().Err(err).Msg("list protocols for update cycle failed")
		return
	}

	for _, p := range all {
		if !p.Status.IsActive() {
			continue
		}
		local, err := s.openLocalStore(p)
		if err != nil {
			s.logger.Warn().Int64("protocol_id", p.ID).Err(err).Msg("open local store for update cycle failed")
			continue
		}
		res := s.lcm.UpdateProtocol(p, local, true, true)
		local.Close()
		if res == lifecycle.Updated {
			s.invalidateRunsGraph()
		}
	}
}

// openLocalStore opens the bbolt copy living in a protocol's own run
// directory, the Go analogue of pwprot.getProtocolFromDb.
func (s *Scheduler) openLocalStore(p *types.Protocol) (*store.BoltStore, error) {
	return store.Open(p.WorkingDir)
}

func (s *Scheduler) invalidateRunsGraph() {
	s.mu.Lock()
	s.runsGraphCache = nil
	s.mu.Unlock()
}

// workingDir returns a protocol's run directory name, spec's
// "RUNS/{id:06d}_{className}".
func workingDir(id int64, className string) string {
	return fmt.Sprintf("Runs/%06d_%s", id, className)
}
