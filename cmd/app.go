package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-structview/cmd/config"
	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/metrics"
	"github.com/mattsolo1/grove-structview/pkg/source/fsdir"
	"github.com/mattsolo1/grove-structview/pkg/source/repo"
	"github.com/mattsolo1/grove-structview/pkg/source/repo/github"
	"github.com/mattsolo1/grove-structview/pkg/session"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// App holds what every command shares: configuration, the session and the
// icon resolver.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Metrics  *metrics.Collector
	Session  *session.Session
	Resolver *icons.Resolver

	store *icons.Store
}

// NewApp wires a session and icon resolver from cfg.
func NewApp(cfg *config.Config) (*App, error) {
	logger := cfg.Logger()
	collector := metrics.New()

	collation, err := tree.ParseCollation(cfg.Sort.Collation)
	if err != nil {
		return nil, err
	}

	fsOpts := fsdir.Options{
		ShowHidden:      cfg.FS.ShowHidden,
		PeekConcurrency: cfg.FS.PeekConcurrency,
		Logger:          logger.WithField("component", "fsdir"),
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: collector,
	}

	app.Session = session.New(session.Options{
		Logger:         logrus.NewEntry(logger),
		Metrics:        collector,
		Collation:      collation,
		FS:             &fsOpts,
		PriorityFields: cfg.JSON.PriorityFields,
		Repo:           newRepoAPI(cfg, logger),
	})

	resolverOpts := []icons.Option{
		icons.WithBaseURL(cfg.Icons.BaseURL),
		icons.WithTimeout(cfg.Icons.Timeout),
		icons.WithMaxEntries(cfg.Icons.MaxEntries),
		icons.WithMetrics(collector),
		icons.WithLogger(logrus.NewEntry(logger)),
	}
	if cfg.Icons.CacheDir != "" {
		store, err := openIconStore(cfg.Icons.CacheDir, cfg.Icons.MaxEntries)
		if err != nil {
			// The cache only saves downloads; run without it.
			logger.WithError(err).Warn("icon cache unavailable")
		} else {
			app.store = store
			resolverOpts = append(resolverOpts, icons.WithStore(store))
		}
	}
	app.Resolver = icons.NewResolver(resolverOpts...)

	return app, nil
}

func newRepoAPI(cfg *config.Config, logger *logrus.Logger) repo.API {
	if cfg.GitHub.Transport == "gh" {
		return github.NewCLIClient(nil)
	}
	return github.NewRESTClient(
		github.WithBaseURL(cfg.GitHub.APIURL),
		github.WithToken(cfg.GitHub.Token),
		github.WithLogger(logger.WithField("component", "github")),
	)
}

func openIconStore(dir string, maxEntries int) (*icons.Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return icons.OpenStore(filepath.Join(dir, "icons.db"), maxEntries)
}

// Close releases the icon cache.
func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}
