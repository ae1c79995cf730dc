// Package internal provides the App struct that wires all components of
// story digest together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/story-digest/internal/cli"
	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/internal/observability"
	"github.com/valter-silva-au/story-digest/internal/storage"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

// EventLogFileName is the JSONL business event log kept under the base path.
const EventLogFileName = ".sdg_events.jsonl"

// App holds all service dependencies for story digest.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.DigestConfig

	// Storage layer
	Backend    storage.Backend
	Documents  *storage.DocumentStore
	Registry   storage.SessionRegistry
	ReadyQueue storage.ReadyQueueManager

	// Core services
	Heuristics *core.Heuristics
	Digest     *core.Orchestrator

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of story digest. basePath is the
// root directory where all data is stored (typically the directory holding
// .digestconfig).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil || app.ConfigMgr.ValidateConfig(cfg) != nil {
		// Use defaults if the config file is unreadable or invalid;
		// 'sdg config validate' reports the problems.
		cfg = core.DefaultConfig()
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Backend, err = storage.NewBackend(cfg.StorageBackend, basePath)
	if err != nil {
		return nil, err
	}
	app.Documents = storage.NewDocumentStore(app.Backend)
	app.Registry = storage.NewSessionRegistry(app.Backend)
	app.ReadyQueue = storage.NewReadyQueueManager(app.Backend)

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFileName))
	if err != nil {
		// Non-fatal: run without events if the log can't be created.
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Core services ---
	app.Heuristics = core.NewHeuristics(observability.NewLogger(cfg.Debug))
	app.Digest = core.NewOrchestrator(core.OrchestratorDeps{
		Config:     cfg,
		Docs:       app.Documents,
		Registry:   app.Registry,
		Ready:      app.ReadyQueue,
		SessionIDs: core.NewSessionIDGenerator(basePath),
		ReadyIDs:   core.NewIDGenerator(basePath, ".ready_counter", cfg.ReadyPrefix, cfg.ReadyPadWidth),
		Events:     events,
		Heuristics: app.Heuristics,
	})

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Digest = app.Digest
	cli.Heuristics = app.Heuristics
	cli.ReadyQueue = app.ReadyQueue
	cli.ConfigMgr = app.ConfigMgr
	cli.Config = cfg
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases the event log file handle and the storage backend.
func (a *App) Close() error {
	var firstErr error
	if a.EventLog != nil {
		firstErr = a.EventLog.Close()
	}
	if a.Backend != nil {
		if err := a.Backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the story digest data directory. It checks the
// SDG_HOME env var, then the nearest directory holding .digestconfig, then
// falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("SDG_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	session, _ := data["session_id"].(string)
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Session: session,
		Message: eventType,
		Data:    data,
	})
}
