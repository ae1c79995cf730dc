package cli

import (
	"io"
	"os"

	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/internal/observability"
	"github.com/valter-silva-au/story-digest/internal/storage"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Digest     *core.Orchestrator
	Heuristics *core.Heuristics
	ReadyQueue storage.ReadyQueueManager
	ConfigMgr  core.ConfigurationManager
	Config     *models.DigestConfig
	BasePath   string
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)

// Stdin is read by commands that accept "-" as input. Tests replace it.
var Stdin io.Reader = os.Stdin

// Global flags.
var (
	sessionFlag string
	debugFlag   bool
)

// handle returns the session handle selected by --session.
func handle() core.Handle {
	return core.Handle{SessionID: sessionFlag}
}
