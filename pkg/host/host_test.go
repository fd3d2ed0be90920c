package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
name: cluster-a
gpuList: [0, 1, 2, 3]
mpiCommand: "mpirun -np %(NUMBER_OF_MPI)d %(COMMAND)s"
queues:
  slurm:
    name: slurm
    submitCommand: "sbatch %s"
    checkCommand: "sacct -j %s"
    cancelCommand: "scancel %s"
    jobDoneRegex: "COMPLETED|FAILED|CANCELLED"
    defaults:
      JOB_NAME: meridian
      JOB_TIME: "01:00:00"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.conf")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	return path
}

func TestLoadParsesQueuesAndGpuList(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "cluster-a", cfg.Name)
	assert.Equal(t, []int{0, 1, 2, 3}, cfg.GPUList)

	q, ok := cfg.Queue("slurm")
	require.True(t, ok)
	assert.Equal(t, "sbatch %s", q.SubmitCommand)
}

func TestJobDoneRegexClassifiesOutput(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	re, ok := cfg.JobDoneRegex("slurm")
	require.True(t, ok)
	assert.True(t, re.MatchString("job 123 COMPLETED"))
	assert.False(t, re.MatchString("job 123 RUNNING"))
}

func TestQueueDefaultsReturnsIndependentCopy(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	defaults := cfg.QueueDefaults("slurm")
	defaults["JOB_NAME"] = "mutated"

	again := cfg.QueueDefaults("slurm")
	assert.Equal(t, "meridian", again["JOB_NAME"])
}

func TestDefaultIsLocalOnly(t *testing.T) {
	cfg := Default()
	_, ok := cfg.Queue("slurm")
	assert.False(t, ok)
}

const multiHostConfig = `
cluster-a:
  gpuList: [0, 1]
  queues:
    slurm:
      name: slurm
      submitCommand: "sbatch %s"
      checkCommand: "sacct -j %s"
      jobDoneRegex: "COMPLETED|FAILED"
workstation:
  gpuList: [0]
`

func TestLoadAllParsesMultipleHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.conf")
	require.NoError(t, os.WriteFile(path, []byte(multiHostConfig), 0o644))

	hosts, err := LoadAll(path)
	require.NoError(t, err)
	require.Len(t, hosts, 2)

	clusterA, ok := hosts["cluster-a"]
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, clusterA.GPUList)
	re, ok := clusterA.JobDoneRegex("slurm")
	require.True(t, ok)
	assert.True(t, re.MatchString("COMPLETED"))

	_, ok = hosts["workstation"]
	assert.True(t, ok)
}

func TestLoadAllFallsBackToDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.conf")

	hosts, err := LoadAll(path)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	_, ok := hosts["localhost"]
	assert.True(t, ok)
}
