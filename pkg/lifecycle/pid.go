package lifecycle

import (
	"syscall"

	"github.com/meridian-sci/meridian/pkg/log"
	"github.com/meridian-sci/meridian/pkg/types"
)

// CheckPID marks p FAILED if it claims to be running locally but its
// recorded pid is no longer alive. Grounded on checkPid in
// pyworkflow/project/project.py: pid 0 means "unknown, skip"; queued
// protocols are never checked here since the queue system, not the
// local OS, owns their liveness; interactive protocols are excluded
// because they wait on user input rather than a live process.
func CheckPID(p *types.Protocol) {
	if p.PID == 0 {
		return
	}
	if !p.Status.IsActive() {
		return
	}
	if p.Status == types.StatusInteractive {
		return
	}
	if p.UseQueue {
		return
	}

	if !processAlive(p.PID) {
		log.WithProtocolID(p.ID).Warn().Int("pid", p.PID).Msg("process not found running on the machine")
		p.Status = types.StatusFailed
		p.ErrorMessage = "process not found running on the machine; it probably died or was killed without reporting status"
	}
}

// processAlive probes for a running process without sending it a signal,
// the same zero-signal trick ps and kill -0 use.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	if err == nil {
		return true
	}
	if err == syscall.ESRCH {
		return false
	}
	// EPERM means the process exists but we lack permission to signal
	// it; that still counts as alive.
	return err == syscall.EPERM
}
