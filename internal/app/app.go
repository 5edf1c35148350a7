// Package app wires the evaluation pipeline from configuration.
package app

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"brandwatch/internal/notification"
	"brandwatch/pkg/browser"
	bwerrors "brandwatch/pkg/errors"
	"brandwatch/pkg/knowledge"
	"brandwatch/pkg/pipeline"
	"brandwatch/pkg/probe"
	"brandwatch/pkg/safebrowsing"
	"brandwatch/pkg/search"
	"brandwatch/pkg/store"
	"brandwatch/pkg/vision"
)

// App holds the wired pipeline and its long-lived resources.
type App struct {
	Store        *store.Store
	Orchestrator *pipeline.Orchestrator
	Notifier     *notification.NotificationClient

	fetchPool *browser.Supervisor
	probePool *browser.Supervisor
}

// New builds the full pipeline from configuration. Collaborator API keys
// come from config keys or their BRANDWATCH_* environment overrides.
func New(v *viper.Viper) (*App, error) {
	searchKey := v.GetString("search.api_key")
	searchEngine := v.GetString("search.engine_id")
	if searchKey == "" || searchEngine == "" {
		return nil, bwerrors.NewConfigError("search.api_key", "", "search API key and engine id are required")
	}
	modelCommand := v.GetString("model.command")
	if modelCommand == "" {
		return nil, bwerrors.NewConfigError("model.command", "", "model helper command is required")
	}

	model := vision.NewModelClient(modelCommand, v.GetStringSlice("model.args"))
	searchClient := search.NewClient(searchKey, searchEngine)
	trust := safebrowsing.NewClient(v.GetString("safebrowsing.api_key"))
	visionClient := vision.NewClient(v.GetString("vision.api_key"))

	st, err := store.Open(v.GetString("store.dir"), model)
	if err != nil {
		return nil, err
	}

	browserCfg := browser.DefaultConfig()
	browserCfg.Headless = v.GetBool("browser.headless")
	if d := v.GetDuration("browser.page_load_timeout"); d > 0 {
		browserCfg.PageLoadTimeout = d
	}
	supCfg := browser.SupervisorConfig{
		RecycleEvery:  v.GetInt("supervisor.recycle_every"),
		RestartBudget: v.GetInt("supervisor.restart_budget"),
	}

	branch, ok := knowledge.ParseBranch(v.GetString("discovery.branch"))
	if !ok {
		return nil, bwerrors.NewConfigError("discovery.branch", v.GetString("discovery.branch"), "unknown discovery branch")
	}

	engineCfg := knowledge.DefaultConfig()
	if t := v.GetFloat64("discovery.similarity"); t > 0 {
		engineCfg.SimilarityThreshold = t
	}
	engine := knowledge.NewEngine(searchClient, model, model, trust,
		knowledge.WithOCR(visionClient),
		knowledge.WithLabeler(visionClient),
		knowledge.WithConfig(engineCfg),
	)

	app := &App{
		Store:     st,
		fetchPool: browser.NewSupervisor("fetch", browserCfg, supCfg),
	}

	opts := []pipeline.OptFunc{pipeline.WithBranch(branch)}
	if probeCommand := v.GetString("probe.command"); probeCommand != "" {
		app.probePool = browser.NewSupervisor("probe", browserCfg, supCfg)
		prober := probe.NewModelProber(probeCommand, v.GetStringSlice("probe.args"))
		opts = append(opts, pipeline.WithProber(prober, app.probePool))
	}

	app.Orchestrator = pipeline.NewOrchestrator(model, model, engine, st, app.fetchPool, opts...)

	if os.Getenv("DISCORD_TOKEN") != "" {
		notifier, err := notification.NewNotificationClient()
		if err != nil {
			log.Warnf("Failed to initialize Discord client: %v", err)
		} else {
			app.Notifier = notifier
			log.Info("Discord notifications enabled")
		}
	}

	return app, nil
}

// Capture takes a fresh screenshot of a page using the fetch session.
func (a *App) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	drv, err := a.fetchPool.Session()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := drv.Navigate(ctx, pageURL); err != nil {
		return nil, err
	}
	return drv.Screenshot(ctx)
}

// Close releases browser sessions and the notification client.
func (a *App) Close() error {
	var first error
	if err := a.fetchPool.Close(); err != nil {
		first = err
	}
	if a.probePool != nil {
		if err := a.probePool.Close(); err != nil && first == nil {
			first = err
		}
	}
	if a.Notifier != nil {
		if err := a.Notifier.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
