// Package project ties the POS, the protocol-kind registry, host
// configuration and the scheduler together into a single open project
// directory, the way pyworkflow's Project class wraps a project's
// mapper, settings and host configuration. A Project is created once per
// directory and closed explicitly.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/meridian-sci/meridian/pkg/host"
	"github.com/meridian-sci/meridian/pkg/log"
	"github.com/meridian-sci/meridian/pkg/metrics"
	"github.com/meridian-sci/meridian/pkg/proto"
	"github.com/meridian-sci/meridian/pkg/scheduler"
	"github.com/meridian-sci/meridian/pkg/store"
)

// Directory layout under a project's root path. Ported from project.py's
// PROJECT_DBNAME/PROJECT_LOGS/PROJECT_RUNS/PROJECT_TMP/PROJECT_UPLOAD/
// PROJECT_SETTINGS/PROJECT_CONFIG constants.
const (
	dirLogs    = "Logs"
	dirRuns    = "Runs"
	dirTmp     = "Tmp"
	dirUploads = "Uploads"
	dirConfig  = ".config"

	fileHosts    = "hosts.conf"
	fileSettings = "settings.json"

	// writeOK is the POSIX W_OK access mode bit.
	writeOK = 2
)

// Project is a single open project directory: its store, its protocol
// registry, its host configuration, and the scheduler driving it.
type Project struct {
	path      string
	shortName string

	store     store.Store
	registry  *proto.Registry
	scheduler *scheduler.Scheduler
	collector *metrics.Collector
	hosts     map[string]*host.Config

	settings *Settings

	creationTime time.Time
	lastRunTime  time.Time

	logger zerolog.Logger
}

// Settings holds the small amount of per-project user state that is not
// itself a protocol: the selected runs view, the read-only flag, and
// when the project was created. Ported from config.ProjectSettings.
type Settings struct {
	RunsView     int       `json:"runsView"`
	ReadOnly     bool      `json:"readOnly"`
	CreationTime time.Time `json:"creationTime"`
}

// Create lays out a brand-new project directory at path: the POS file,
// the Logs/Runs/Tmp/Uploads directories, settings.json and an empty
// .config/hosts.conf. Ported from Project.create.
func Create(path string, registry *proto.Registry, runsView int, readOnly bool) (*Project, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	for _, dir := range []string{absPath, filepath.Join(absPath, dirLogs), filepath.Join(absPath, dirRuns),
		filepath.Join(absPath, dirTmp), filepath.Join(absPath, dirUploads), filepath.Join(absPath, dirConfig)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create project directory %s: %w", dir, err)
		}
	}

	st, err := store.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("create project store: %w", err)
	}

	now := time.Now()
	settings := &Settings{RunsView: runsView, ReadOnly: readOnly, CreationTime: now}
	if err := saveSettings(absPath, settings); err != nil {
		st.Close()
		return nil, err
	}

	hostsPath := filepath.Join(absPath, dirConfig, fileHosts)
	hosts, err := host.LoadAll(hostsPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load hosts: %w", err)
	}

	p := newProject(absPath, st, registry, hosts, settings, now)
	p.logger.Info().Str("path", absPath).Msg("created project")
	return p, nil
}

// Load opens an existing project directory. Ported from Project.load.
func Load(path string, registry *proto.Registry) (*Project, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("cannot load project, path doesn't exist: %s", absPath)
	}

	readOnlyFolder := false
	if err := syscall.Access(absPath, writeOK); err != nil {
		readOnlyFolder = true
		log.Warn(fmt.Sprintf("project %q: no write permission, loading read-only", filepath.Base(absPath)))
	}

	dbPath := filepath.Join(absPath, "project.db")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("project database not found at %q: %w", dbPath, ErrMissingProjectDB)
	}
	st, err := store.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}

	settings, err := loadSettings(absPath)
	if err != nil {
		st.Close()
		return nil, err
	}
	if readOnlyFolder {
		settings.ReadOnly = true
	}

	hostsPath := filepath.Join(absPath, dirConfig, fileHosts)
	hosts, err := host.LoadAll(hostsPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load hosts: %w", err)
	}

	p := newProject(absPath, st, registry, hosts, settings, settings.CreationTime)
	p.logger.Info().Str("path", absPath).Bool("readOnly", p.IsReadOnly()).Msg("loaded project")
	return p, nil
}

func newProject(absPath string, st store.Store, registry *proto.Registry, hosts map[string]*host.Config, settings *Settings, creationTime time.Time) *Project {
	sched := scheduler.NewScheduler(st, registry, hosts, settings.ReadOnly)
	collector := metrics.NewCollector(st)

	return &Project{
		path:         absPath,
		shortName:    filepath.Base(absPath),
		store:        st,
		registry:     registry,
		scheduler:    sched,
		collector:    collector,
		hosts:        hosts,
		settings:     settings,
		creationTime: creationTime,
		logger:       log.WithComponent("project").With().Str("project", filepath.Base(absPath)).Logger(),
	}
}

// Start begins the scheduler's background update loop and the metrics
// collector.
func (p *Project) Start() {
	p.scheduler.Start()
	p.collector.Start()
}

// Close stops the background loops and closes the store.
func (p *Project) Close() error {
	p.scheduler.Stop()
	p.collector.Stop()
	return p.store.Close()
}

// Path returns the project's absolute root directory.
func (p *Project) Path() string { return p.path }

// ShortName returns the project directory's base name, used as its
// object id in the original (getObjId).
func (p *Project) ShortName() string { return p.shortName }

// Scheduler returns the project's scheduler.
func (p *Project) Scheduler() *scheduler.Scheduler { return p.scheduler }

// Store returns the project's POS handle.
func (p *Project) Store() store.Store { return p.store }

// LogPath returns a path under the project's Logs/ directory.
func (p *Project) LogPath(elem ...string) string {
	return filepath.Join(append([]string{p.path, dirLogs}, elem...)...)
}

// RunsPath returns a path under the project's Runs/ directory.
func (p *Project) RunsPath(elem ...string) string {
	return filepath.Join(append([]string{p.path, dirRuns}, elem...)...)
}

// TmpPath returns a path under the project's Tmp/ directory.
func (p *Project) TmpPath(elem ...string) string {
	return filepath.Join(append([]string{p.path, dirTmp}, elem...)...)
}

// UploadsPath returns a path under the project's Uploads/ directory.
func (p *Project) UploadsPath(elem ...string) string {
	return filepath.Join(append([]string{p.path, dirUploads}, elem...)...)
}

// CreationTime reports when the project was created.
func (p *Project) CreationTime() time.Time { return p.creationTime }

// IsReadOnly reports whether the project rejects mutating operations,
// either because its settings say so or its directory isn't writable.
// Ported from isReadOnly/openedAsReadOnly.
func (p *Project) IsReadOnly() bool { return p.settings.ReadOnly }

// SetReadOnly flips the project's read-only flag and persists it
// unconditionally, since the flag change itself is the thing being
// saved, not a mutation gated by it. Ported from setReadOnly.
func (p *Project) SetReadOnly(value bool) error {
	p.settings.ReadOnly = value
	return saveSettings(p.path, p.settings)
}

// Settings returns the project's persisted user settings.
func (p *Project) Settings() *Settings { return p.settings }

// SaveSettings persists the current settings, a no-op in read-only mode.
// Ported from saveSettings.
func (p *Project) SaveSettings() error {
	if p.settings.ReadOnly {
		return nil
	}
	return saveSettings(p.path, p.settings)
}

// GetHostConfig returns the named host's configuration, falling back to
// the first registered host (with a warning) if hostName is unknown.
// Ported from getHostConfig.
func (p *Project) GetHostConfig(hostName string) *host.Config {
	if cfg, ok := p.hosts[hostName]; ok {
		return cfg
	}
	for name, cfg := range p.hosts {
		p.logger.Warn().Str("requested", hostName).Str("using", name).Msg("host not found, falling back")
		return cfg
	}
	return host.Default()
}

// HostNames returns every host name configured for this project.
func (p *Project) HostNames() []string {
	names := make([]string, 0, len(p.hosts))
	for name := range p.hosts {
		names = append(names, name)
	}
	return names
}
