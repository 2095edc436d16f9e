package cli

import (
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/weitblick/internal/cache"
	"github.com/ppiankov/weitblick/internal/discourse"
	"github.com/ppiankov/weitblick/internal/fanout"
	"github.com/ppiankov/weitblick/internal/keystore"
	"github.com/ppiankov/weitblick/internal/llm"
	"github.com/ppiankov/weitblick/internal/logging"
	"github.com/ppiankov/weitblick/internal/model"
)

// app bundles the collaborators a command needs
type app struct {
	cfg          *model.Config
	logger       *zap.Logger
	store        *keystore.FileStore
	credentials  discourse.CredentialSource
	orchestrator *fanout.Orchestrator
}

// newApp loads configuration and wires the provider stack
func newApp() (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}

	providers, err := llm.NewProviders(cfg)
	if err != nil {
		return nil, err
	}

	store := keystore.NewFileStore(cfg.Keys.File)
	c := cache.New(cfg.Cache)

	logger.Debug("configuration loaded",
		zap.String("strategy", cfg.Analysis.Strategy),
		zap.String("structure", cfg.Analysis.Structure),
		zap.Duration("timeout", cfg.Analysis.Timeout),
		zap.Bool("cache", c != nil))

	return &app{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		credentials:  keystore.WithEnv{Store: store, Getenv: os.Getenv},
		orchestrator: fanout.New(providers, cfg, c, logger.Named("fanout")),
	}, nil
}

// newSession creates an exploration session on the app's stack
func (a *app) newSession(analysis model.AnalysisConfig) *discourse.Session {
	return discourse.New(a.orchestrator, a.credentials, analysis, a.logger.Named("discourse"))
}

// newGuide creates a guided phase exploration on the app's stack
func (a *app) newGuide() *discourse.Guide {
	return discourse.NewGuide(a.orchestrator, a.credentials, a.logger.Named("guide"))
}

func (a *app) close() {
	_ = a.logger.Sync()
}
