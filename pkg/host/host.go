// Package host loads the per-host execution configuration: how to run a
// program locally or through a queue, how to probe a submitted job's
// status, and the GPU inventory available for allocation. Grounded on the
// hostConfig object referenced throughout
// pyworkflow/protocol/executor.py (getQueuesDefault, getCheckCommand,
// getJobDoneRegex, getSubmitCommand, getGpuList).
package host

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// QueueSystem describes one named queue a host exposes (e.g. "slurm",
// "sge"), with the command templates the queue executor fills in.
type QueueSystem struct {
	Name string `yaml:"name"`

	// SubmitCommand launches the job script (%s is the script path via
	// fmt.Sprintf) and must print a job id to stdout.
	SubmitCommand string `yaml:"submitCommand"`
	// CheckCommand is formatted with the job id (%s via fmt.Sprintf)
	// and its output classified by JobDoneRegex.
	CheckCommand string `yaml:"checkCommand"`
	// CancelCommand is formatted with the job id (%s) to abort a
	// running job.
	CancelCommand string `yaml:"cancelCommand,omitempty"`
	// JobDoneRegex matches CheckCommand's output when the job has
	// finished; no match and non-empty output means still running.
	JobDoneRegex string `yaml:"jobDoneRegex"`

	// Defaults merged under a protocol's own queue params before
	// submission (spec: "queue defaults merged under explicit params").
	Defaults map[string]string `yaml:"defaults,omitempty"`
}

// Config is one host's full execution configuration, as loaded from
// <project>/.config/hosts.conf.
type Config struct {
	Name string `yaml:"name"`

	// Queues maps queue name to its QueueSystem definition. A host with
	// no queues only supports local (serial/thread-pool/MPI) execution.
	Queues map[string]QueueSystem `yaml:"queues,omitempty"`

	// GPUList enumerates the GPU device indices available on this host,
	// partitioned across concurrently running steps by the executor.
	GPUList []int `yaml:"gpuList,omitempty"`

	// MPICommand is the template used to launch an MPI job, with
	// %(JOB_NODEFILE)s, %(NUMBER_OF_MPI)d and %(COMMAND)s placeholders.
	// It is loaded and kept as written; the MPI executor does not read it.
	MPICommand string `yaml:"mpiCommand,omitempty"`

	jobDoneRe map[string]*regexp.Regexp
}

// Load reads and parses a host config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse host config %s: %w", path, err)
	}
	cfg.jobDoneRe = make(map[string]*regexp.Regexp, len(cfg.Queues))
	for name, q := range cfg.Queues {
		re, err := regexp.Compile(q.JobDoneRegex)
		if err != nil {
			return nil, fmt.Errorf("host %s: queue %s: compile jobDoneRegex: %w", cfg.Name, name, err)
		}
		cfg.jobDoneRe[name] = re
	}
	return &cfg, nil
}

// Default returns a minimal local-only host config: no queues, no GPUs,
// used when a project has no hosts.conf.
func Default() *Config {
	return &Config{Name: "localhost"}
}

// LoadAll reads a project's hosts.conf: a single YAML mapping from host
// name to that host's Config. A project with no
// hosts.conf gets a single "localhost" entry from Default().
func LoadAll(path string) (map[string]*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			d := Default()
			return map[string]*Config{d.Name: d}, nil
		}
		return nil, fmt.Errorf("read hosts config: %w", err)
	}

	var raw map[string]Config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hosts config %s: %w", path, err)
	}

	out := make(map[string]*Config, len(raw))
	for name, cfg := range raw {
		cfg := cfg
		if cfg.Name == "" {
			cfg.Name = name
		}
		cfg.jobDoneRe = make(map[string]*regexp.Regexp, len(cfg.Queues))
		for qname, q := range cfg.Queues {
			re, err := regexp.Compile(q.JobDoneRegex)
			if err != nil {
				return nil, fmt.Errorf("host %s: queue %s: compile jobDoneRegex: %w", name, qname, err)
			}
			cfg.jobDoneRe[qname] = re
		}
		out[name] = &cfg
	}
	if len(out) == 0 {
		d := Default()
		out[d.Name] = d
	}
	return out, nil
}

// Queue returns the named queue system, or ok=false if this host doesn't
// define it.
func (c *Config) Queue(name string) (QueueSystem, bool) {
	q, ok := c.Queues[name]
	return q, ok
}

// JobDoneRegex returns the compiled "job finished" regex for a queue.
func (c *Config) JobDoneRegex(queueName string) (*regexp.Regexp, bool) {
	re, ok := c.jobDoneRe[queueName]
	return re, ok
}

// QueueDefaults returns a copy of a queue's default submit params, so
// callers may safely merge protocol-specific overrides on top without
// mutating the host config.
func (c *Config) QueueDefaults(queueName string) map[string]string {
	q, ok := c.Queues[queueName]
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(q.Defaults))
	for k, v := range q.Defaults {
		out[k] = v
	}
	return out
}
