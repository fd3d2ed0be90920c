package executor

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-sci/meridian/pkg/host"
	"github.com/meridian-sci/meridian/pkg/types"
)

// Submitter abstracts handing a job script to a queue system and getting
// back a job id, so QueueExecutor can be tested without a real scheduler.
// The production implementation shells out to the queue's submit
// command.
type Submitter interface {
	Submit(queue host.QueueSystem, jobScript, cwd string) (jobID string, err error)
}

// CommandSubmitter runs a queue's SubmitCommand through the shell,
// treating its trimmed stdout as the job id. Ported from launch._submit.
type CommandSubmitter struct{}

func (CommandSubmitter) Submit(queue host.QueueSystem, jobScript, cwd string) (string, error) {
	cmd := exec.Command("sh", "-c", fmt.Sprintf(queue.SubmitCommand, jobScript))
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("submit to queue %s: %w", queue.Name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// QueueExecutor submits each step to a queue system and polls for
// completion instead of running it in-process, reusing the thread-pool's
// GPU partitioning and worker bookkeeping. Ported from QueueStepExecutor.
type QueueExecutor struct {
	numWorkers    int
	gpuDict       map[int][]int
	checkInterval time.Duration

	hostCfg   *host.Config
	queueName string
	submitter Submitter
	writeJob  func(step *types.Step, ctx types.RunContext) (scriptPath string, cwd string, err error)
}

// NewQueueExecutor builds a queue executor bound to a host's named queue
// system. writeJob materializes a step's job script on disk (grounded on
// QueueStepExecutor.runJob's JOB_SCRIPT/JOB_NAME/JOB_LOGS construction,
// using uuid for script naming instead of a thread-id suffix counter).
func NewQueueExecutor(nThreads int, gpuList []int, hostCfg *host.Config, queueName string, submitter Submitter, writeJob func(*types.Step, types.RunContext) (string, string, error)) *QueueExecutor {
	return &QueueExecutor{
		numWorkers:    nThreads,
		gpuDict:       partitionGPUs(gpuList, nThreads),
		checkInterval: 5 * time.Second,
		hostCfg:       hostCfg,
		queueName:     queueName,
		submitter:     submitter,
		writeJob:      writeJob,
	}
}

func (e *QueueExecutor) RunSteps(steps []*types.Step, cb Callbacks) {
	runPool(steps, e.numWorkers, e.gpuDict, e.checkInterval, e.runOnQueue, cb)
}

func (e *QueueExecutor) runOnQueue(ctx types.RunContext, step *types.Step) error {
	queue, ok := e.hostCfg.Queue(e.queueName)
	if !ok {
		return fmt.Errorf("host %s: unknown queue %q", e.hostCfg.Name, e.queueName)
	}

	scriptPath, cwd, err := e.writeJob(step, ctx)
	if err != nil {
		return fmt.Errorf("write job script: %w", err)
	}

	jobID, err := e.submitter.Submit(queue, scriptPath, cwd)
	if err != nil || jobID == "" {
		return fmt.Errorf("failed to submit to queue: %w", err)
	}

	return e.pollUntilDone(queue, jobID)
}

// pollUntilDone polls a submitted job's status with the backoff the
// original executor uses: an initial 3s wait, growing by 3s per poll,
// capped at 300s. Ported verbatim from
// QueueStepExecutor.runJob/_checkJobStatus.
func (e *QueueExecutor) pollUntilDone(queue host.QueueSystem, jobID string) error {
	wait := 3 * time.Second
	for {
		status, err := e.checkJobStatus(queue, jobID)
		if err != nil {
			return err
		}
		if status == types.StatusFinished {
			return nil
		}
		time.Sleep(wait)
		if wait < 300*time.Second {
			wait += 3 * time.Second
		}
	}
}

// checkJobStatus runs the queue's check command and classifies its
// output: empty output means the job is no longer queued (finished); a
// match against JobDoneRegex means finished; anything else means still
// running. Ported verbatim from QueueStepExecutor._checkJobStatus.
func (e *QueueExecutor) checkJobStatus(queue host.QueueSystem, jobID string) (types.Status, error) {
	cmd := exec.Command("sh", "-c", fmt.Sprintf(queue.CheckCommand, jobID))
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("check job %s status: %w", jobID, err)
	}
	if len(out) == 0 {
		return types.StatusFinished, nil
	}

	re, ok := e.hostCfg.JobDoneRegex(e.queueName)
	if !ok || re.String() == "" {
		return types.StatusRunning, nil
	}
	if re.Match(out) {
		return types.StatusFinished, nil
	}
	return types.StatusRunning, nil
}

// newJobScriptName generates a unique job script basename, replacing the
// original's per-thread submission counter with a uuid since Go workers
// aren't addressed by a stable per-process thread id.
func newJobScriptName(prefix string) string {
	return fmt.Sprintf("%s-%s.job", prefix, uuid.NewString())
}
