package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/document"
	"github.com/brianndofor/trialrev/internal/pipeline"
	"github.com/brianndofor/trialrev/internal/provider"
	"github.com/brianndofor/trialrev/internal/reviewer"
	"github.com/brianndofor/trialrev/internal/store"
)

type appKey struct{}

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Documents *document.Extractor
	Store     *store.Store
	Registry  *reviewer.Registry

	completer    provider.Completer
	completerErr error
}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func getApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("internal error: app not initialized")
	}
	return app, nil
}

func initApp(configPath string, logOut io.Writer) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if os.Getenv("TRIALREV_MOCK") == "1" {
		cfg.Model.Provider = config.ProviderFake
		if cfg.Model.FixtureDir == "" {
			cfg.Model.FixtureDir = filepath.Join("testdata", "provider")
		}
	}
	logger := newLogger(logOut, cfg.Log.Level)

	registry, err := reviewer.RegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	// Commands that never call the model still work without credentials;
	// the error surfaces on first use.
	var completer provider.Completer
	base, completerErr := provider.New(cfg.Model)
	if completerErr == nil {
		completer = provider.Wrap(base, cfg.Model, logger)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		Documents:    document.NewExtractor(),
		Store:        st,
		Registry:     registry,
		completer:    completer,
		completerErr: completerErr,
	}, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func (a *App) Completer() (provider.Completer, error) {
	if a.completerErr != nil {
		return nil, fmt.Errorf("model provider %q unavailable: %w", a.Config.Model.Provider, a.completerErr)
	}
	return a.completer, nil
}

func (a *App) Pipeline() (*pipeline.Pipeline, error) {
	c, err := a.Completer()
	if err != nil {
		return nil, err
	}
	return pipeline.New(c, a.Config.Model,
		pipeline.WithRegistry(a.Registry),
		pipeline.WithConcurrency(a.Config.Review.Concurrency),
		pipeline.WithRiskTemperature(a.Config.Review.RiskTemperature),
		pipeline.WithRedaction(a.Config.Redaction.Enabled),
		pipeline.WithLogger(a.Logger),
	), nil
}

func (a *App) roleLabel(role string) string {
	if r, ok := a.Registry.Get(role); ok {
		return r.DisplayName()
	}
	return role
}

// readDocument loads a protocol file, or stdin for "-", as plain text.
func (a *App) readDocument(ctx context.Context, stdin io.Reader, path string) (string, error) {
	if path == "-" {
		return a.Documents.ExtractText(ctx, stdin, document.FormatText)
	}
	format, err := document.FormatFromPath(path)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	return a.Documents.ExtractText(ctx, f, format)
}
