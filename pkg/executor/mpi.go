package executor

import (
	"time"

	"github.com/meridian-sci/meridian/pkg/types"
)

// mpiTagRunJob mirrors utils/mpi.py's TAG_RUN_JOB: the message tag used
// to address a specific rank with a job to run.
const mpiTagRunJob = 1000

// mpiStopSentinel is the literal string utils/mpi.py sends instead of a
// job to tell a slave rank there is no more work; kept here even though
// our channel-based Comm signals the same thing with a nil step, because
// it documents what the emulation stands in for.
const mpiStopSentinel = "None"

// mpiJob is what a rank receives: the work to perform, addressed by tag
// mpiTagRunJob+rank exactly as runJobMPI/runJobMPISlave's send/recv does.
// A nil step is the mpiStopSentinel: there is no more work for this rank.
type mpiJob struct {
	step  *types.Step
	ctx   types.RunContext
	reply chan error
}

// RankWork executes a step assigned to a given rank.
type RankWork func(rank int, step *types.Step, ctx types.RunContext) error

// rank is a single emulated MPI worker process: a goroutine reading jobs
// off its own channel, standing in for an MPI slave rank blocked in
// runJobMPISlave's recv loop.
type rank struct {
	id   int
	jobs chan mpiJob
}

// Comm emulates the subset of an MPI communicator the executor needs:
// per-rank addressed send/receive, keyed by (tag, rank) the way
// comm.send(data, dest=node, tag=TAG_RUN_JOB+node) does.
type Comm struct {
	ranks []*rank
}

// NewComm spawns nRanks worker goroutines, ranks numbered 1..nRanks
// (rank 0 is the master in the original MPI program and runs no jobs
// here, matching node = threadId+1 in MPIStepExecutor.runJob).
func NewComm(nRanks int, work RankWork) *Comm {
	c := &Comm{ranks: make([]*rank, nRanks+1)}
	for i := 1; i <= nRanks; i++ {
		r := &rank{id: i, jobs: make(chan mpiJob)}
		c.ranks[i] = r
		go r.loop(work)
	}
	return c
}

func (r *rank) loop(work RankWork) {
	for job := range r.jobs {
		if job.step == nil {
			return
		}
		job.reply <- work(r.id, job.step, job.ctx)
	}
}

// Send addresses rank with a step to run, blocking until the rank
// accepts it (the emulated equivalent of comm.send with tag
// TAG_RUN_JOB+rank).
func (c *Comm) Send(rankID int, step *types.Step, ctx types.RunContext) <-chan error {
	reply := make(chan error, 1)
	c.ranks[rankID].jobs <- mpiJob{step: step, ctx: ctx, reply: reply}
	return reply
}

// Stop sends the "None" sentinel to every rank and closes its channel,
// the direct translation of MPIStepExecutor.runSteps' shutdown loop.
func (c *Comm) Stop() {
	for rankID := 1; rankID < len(c.ranks); rankID++ {
		if c.ranks[rankID] == nil {
			continue
		}
		c.ranks[rankID].jobs <- mpiJob{step: nil}
		close(c.ranks[rankID].jobs)
	}
}

// MPIExecutor runs steps across MPI ranks instead of in-process threads,
// using one rank per worker the way MPIStepExecutor addresses
// threadId+1. Ported from MPIStepExecutor.
type MPIExecutor struct {
	numWorkers    int
	gpuDict       map[int][]int
	checkInterval time.Duration
	comm          *Comm
}

// NewMPIExecutor builds an MPI executor over nMPI ranks, dispatching
// through comm (typically built with NewComm wrapping step.Run).
func NewMPIExecutor(nMPI int, gpuList []int, comm *Comm) *MPIExecutor {
	return &MPIExecutor{
		numWorkers:    nMPI,
		gpuDict:       partitionGPUs(gpuList, nMPI),
		checkInterval: 5 * time.Second,
		comm:          comm,
	}
}

func (e *MPIExecutor) RunSteps(steps []*types.Step, cb Callbacks) {
	runPool(steps, e.numWorkers, e.gpuDict, e.checkInterval, e.runViaMPI, cb)
	e.comm.Stop()
}

func (e *MPIExecutor) runViaMPI(ctx types.RunContext, step *types.Step) error {
	rankID := ctx.WorkerID + 1
	errCh := e.comm.Send(rankID, step, ctx)
	return <-errCh
}
