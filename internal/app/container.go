// Package app provides the dependency injection container for the application.
package app

import (
	"errors"
	"os"
	"sync"

	"github.com/barkain/scout/internal/domain"
	"github.com/barkain/scout/internal/infra/api"
	"github.com/barkain/scout/internal/infra/config"
	"github.com/barkain/scout/internal/infra/history"
	"github.com/barkain/scout/internal/infra/logging"
	"github.com/barkain/scout/internal/infra/slotstore"
	"github.com/barkain/scout/internal/tracker"
	"github.com/barkain/scout/internal/usecase"
)

// Paths holds the resolved data file locations.
type Paths struct {
	DataDir     string // Root of the scout data directory
	SlotPath    string // Active task slot file
	HistoryPath string // Run history file
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	API           domain.AnalysisAPI
	Slot          domain.TaskSlot
	History       domain.RunHistory
	Clock         domain.Clock
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	Logger *logging.Logger
	Config *domain.Config

	// Configuration
	Paths Paths

	trackerOnce sync.Once
	tracker     *tracker.Tracker
}

// New creates a new Container rooted at the given working directory.
// The directory is only used to locate a project-local config file.
func New(dir string) (*Container, error) {
	dataDir := domain.DataDir()
	if dataDir == "" {
		return nil, errors.New("cannot determine data directory (no home directory)")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}

	configLoader := config.NewLoader(dir)
	cfg, err := configLoader.Load()
	if err != nil {
		return nil, err
	}

	paths := Paths{
		DataDir:     dataDir,
		SlotPath:    domain.SlotPath(dataDir),
		HistoryPath: domain.HistoryPath(dataDir),
	}

	return &Container{
		API:           api.New(cfg.Server.URL, cfg.ServerTimeout()),
		Slot:          slotstore.New(paths.SlotPath, domain.RealClock{}),
		History:       history.New(paths.HistoryPath),
		Clock:         domain.RealClock{},
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(dir),
		Logger:        logging.New(dataDir, logging.ParseLevel(cfg.Log.Level)),
		Config:        cfg,
		Paths:         paths,
	}, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg *domain.Config, apiClient domain.AnalysisAPI, slot domain.TaskSlot, runs domain.RunHistory, clock domain.Clock) *Container {
	return &Container{
		API:     apiClient,
		Slot:    slot,
		History: runs,
		Clock:   clock,
		Config:  cfg,
	}
}

// Tracker returns the process-wide task tracker, creating it on first use.
func (c *Container) Tracker() *tracker.Tracker {
	c.trackerOnce.Do(func() {
		var logger domain.Logger
		if c.Logger != nil {
			logger = c.Logger
		}
		c.tracker = tracker.New(c.API, c.Slot, c.History, logger, c.Clock,
			tracker.Options{PollInterval: c.Config.PollInterval()}, tracker.Callbacks{})
	})
	return c.tracker
}

// Close releases resources held by the container.
func (c *Container) Close() {
	if c.tracker != nil {
		c.tracker.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}

// UseCase factory methods

// StartAnalysisUseCase returns a new StartAnalysis use case.
func (c *Container) StartAnalysisUseCase() *usecase.StartAnalysis {
	return usecase.NewStartAnalysis(c.Tracker(), c.Config)
}

// CancelAnalysisUseCase returns a new CancelAnalysis use case.
func (c *Container) CancelAnalysisUseCase() *usecase.CancelAnalysis {
	return usecase.NewCancelAnalysis(c.Tracker())
}

// ClearTaskUseCase returns a new ClearTask use case.
func (c *Container) ClearTaskUseCase() *usecase.ClearTask {
	return usecase.NewClearTask(c.Tracker())
}

// ShowStatusUseCase returns a new ShowStatus use case.
func (c *Container) ShowStatusUseCase() *usecase.ShowStatus {
	return usecase.NewShowStatus(c.Tracker(), c.API, c.Clock)
}

// ListRunsUseCase returns a new ListRuns use case.
func (c *Container) ListRunsUseCase() *usecase.ListRuns {
	return usecase.NewListRuns(c.History)
}

// PruneRunsUseCase returns a new PruneRuns use case.
func (c *Container) PruneRunsUseCase() *usecase.PruneRuns {
	return usecase.NewPruneRuns(c.History)
}

// PingUseCase returns a new Ping use case.
func (c *Container) PingUseCase() *usecase.Ping {
	return usecase.NewPing(c.API)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigLoader, c.ConfigManager)
}
