package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appservices "dialograph/application/services"
	"dialograph/domain/core/aggregates"
	"dialograph/domain/core/entities"
	"dialograph/domain/core/valueobjects"
	"dialograph/domain/services"
	"dialograph/infrastructure/config"
	"dialograph/infrastructure/export"
	"dialograph/infrastructure/render"
	"dialograph/interfaces/http/rest"
	"dialograph/interfaces/http/rest/handlers"
	"dialograph/interfaces/websocket"
	"dialograph/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	logger.Info("starting dialograph server",
		zap.String("address", cfg.ServerAddress),
		zap.String("environment", cfg.Environment),
	)

	metrics := observability.NewCollector("dialograph")
	graph := aggregates.NewGraph(aggregates.WithDomainConfig(cfg.Domain))
	if cfg.IsDevelopment() {
		seedDemoGraph(graph, logger)
	}

	// WebSocket hub for live visualization refresh
	var hub *websocket.Hub
	var notifier handlers.ChangeNotifier
	if cfg.WebSocket.Enabled {
		hub = websocket.NewHub(logger, metrics)
		go hub.Run()
		defer hub.Stop()
		notifier = hub
	}

	renderer := render.NewRenderer(render.DefaultRenderConfig())
	handler := handlers.NewGraphHandler(
		graph,
		services.NewRetrievalService(),
		renderer,
		export.NewExporter(),
		metrics,
		notifier,
		logger,
	)

	router := rest.NewRouter(cfg, handler, metrics, logger)
	if hub != nil {
		router.WebSocketHandler = websocket.ServeWS(hub, logger)
	}

	// Background forgetting loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	maintenance := appservices.NewMaintenanceService(graph, logger,
		appservices.WithSweepObserver(func(r appservices.SweepResult) {
			metrics.EdgesPruned.Add(float64(r.Pruned))
			metrics.GraphNodes.Set(float64(r.Statistics.NodeCount))
			metrics.GraphEdges.Set(float64(r.Statistics.EdgeCount))
			metrics.AvgEdgeStrength.Set(r.Statistics.AvgEdgeStrength)
		}),
	)
	go maintenance.Run(ctx, cfg.MaintenanceInterval)

	// Dynamic tuning with hot reload: every reload retunes the running
	// components
	if cfg.DynamicConfigPath != "" {
		watcher, err := config.NewConfigWatcher(cfg.DynamicConfigPath, logger)
		if err != nil {
			logger.Fatal("failed to set up config watcher", zap.Error(err))
		}
		applyDynamic := func(dc *config.DynamicConfig) {
			renderer.ApplyColors(dc.Render.NodeColors, dc.Render.EdgeColors)
			graph.SetMemoryTuning(dc.Maintenance.DecayRatePerHour, dc.Maintenance.PruneThreshold)
			maintenance.SetInterval(time.Duration(dc.Maintenance.SweepIntervalSeconds) * time.Second)
			handler.SetRenderingEnabled(dc.Features.EnableRendering)
			if hub != nil {
				hub.SetEnabled(dc.Features.EnableWebSocket)
			}
		}
		applyDynamic(watcher.GetCurrent())
		watcher.OnChange(applyDynamic)
		watcher.Start()
		defer watcher.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()
	logger.Info("server listening", zap.String("address", cfg.ServerAddress))

	// Graceful shutdown on interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}

// seedDemoGraph loads a small dialogue-memory example so a fresh
// development server has something to show
func seedDemoGraph(graph *aggregates.Graph, logger *zap.Logger) {
	nodes := []struct {
		id       string
		nodeType string
		value    string
	}{
		{id: "stress", nodeType: "problem", value: "User is stressed about exams"},
		{id: "meditation", nodeType: "strategy", value: "Suggest meditation"},
		{id: "exercise", nodeType: "strategy", value: "Suggest exercise"},
	}
	for _, n := range nodes {
		id, err := valueobjects.NewNodeIDFromString(n.id)
		if err != nil {
			logger.Warn("skipping demo node", zap.Error(err))
			continue
		}
		if _, err := graph.AddNode(id, n.nodeType, valueobjects.Attributes{
			"value": valueobjects.String(n.value),
		}); err != nil {
			logger.Warn("skipping demo node", zap.String("id", n.id), zap.Error(err))
		}
	}

	edges := []struct {
		id       string
		source   string
		target   string
		relation string
		strength float64
	}{
		{id: "e1", source: "stress", target: "meditation", relation: "elicits", strength: 0.7},
		{id: "e2", source: "stress", target: "exercise", relation: "elicits", strength: 0.5},
	}
	for _, e := range edges {
		edgeID, err := valueobjects.NewEdgeIDFromString(e.id)
		if err != nil {
			continue
		}
		sourceID, _ := valueobjects.NewNodeIDFromString(e.source)
		targetID, _ := valueobjects.NewNodeIDFromString(e.target)
		if _, err := graph.AddEdge(edgeID, sourceID, targetID, e.relation, nil,
			entities.WithStrength(e.strength)); err != nil {
			logger.Warn("skipping demo edge", zap.String("id", e.id), zap.Error(err))
		}
	}

	logger.Info("seeded demo graph",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
	)
}
