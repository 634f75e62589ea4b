// Package app holds process-wide state for the service.
package app

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-interpretation-service/internal/config"
	"ai-interpretation-service/internal/observability/logging"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
}

// New constructs a new Application from the provided configuration and
// initializes the global logger.
func New(cfg *config.Config) *Application {
	logging.Init(logging.Config{
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
		Service: cfg.Service.Name,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: log.With().Str("component", "application").Logger(),
	}
	a.Logger.Info().Msg("AI interpretation service application created")
	return a
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Str("sttProvider", a.Cfg.STT.Provider).
		Msg("AI interpretation service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("AI interpretation service shutting down")
}
