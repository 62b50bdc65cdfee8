package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"riceinspector/internal/config"
	"riceinspector/internal/logger"
	"riceinspector/internal/repository/sqlite"
	"riceinspector/internal/routes"
	"riceinspector/internal/service"
	"riceinspector/internal/service/ai"
	"riceinspector/internal/service/camera"
	"riceinspector/internal/service/control"
	"riceinspector/internal/service/grain"
	"riceinspector/internal/service/render"
	"riceinspector/internal/service/storage"
	"riceinspector/internal/service/websocket"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	detector   *ai.DetectorService
	analyzer   *grain.Analyzer
	source     camera.FrameSource
	controller control.Controller
	hub        *websocket.HubService
	recorder   *storage.RecorderService
	inspector  *service.Inspector
	server     *http.Server
	started    bool
}

// NewApp wires every component. It must be called from the goroutine that
// will call Run when a display window is used.
func NewApp(cfg *config.Config, log *logger.Logger) (_ *App, err error) {
	app := &App{config: cfg, logger: log}
	defer func() {
		if err != nil {
			err = multierr.Append(err, app.Close())
		}
	}()

	labels, err := config.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	app.detector, err = ai.NewDetectorService(cfg, labels, log)
	if err != nil {
		return nil, err
	}

	app.db, err = sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	reports := sqlite.NewReportRepository(app.db)
	grains := sqlite.NewGrainRepository(app.db)

	app.recorder, err = storage.NewRecorderService(cfg, log, reports, grains)
	if err != nil {
		return nil, err
	}
	if _, err := app.recorder.ImportLog(); err != nil {
		log.Warning("Report log import finished with errors: %v", err)
	}

	app.source, err = camera.Open(cfg, log)
	if err != nil {
		return nil, err
	}

	remote := control.NewRemote()
	if cfg.ShowWindow {
		app.controller = control.NewWindowController(render.WindowTitle, remote)
	} else {
		app.controller = control.NewHeadlessController(time.Duration(cfg.FrameInterval)*time.Millisecond, remote)
	}

	app.hub = websocket.NewHubService(log)
	app.analyzer = grain.NewAnalyzer(cfg.Pipeline, log)
	app.inspector = service.NewInspector(app.source, app.detector, app.analyzer, app.controller, remote, app.recorder, app.hub, log)

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: routes.SetupRoutes(app.inspector, app.hub, reports, grains, app.recorder, cfg, log),
	}

	return app, nil
}

// Run serves the web interface in the background and runs the inspection loop
// on the calling goroutine. It returns when the loop stops or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.started = true

	group, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group.Go(func() error {
		return a.hub.Run(ctx)
	})
	group.Go(func() error {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	fmt.Printf("🌾 Rice Quality Inspector\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Reports: %s\n", a.config.ReportDirectory)
	fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)
	if a.config.ShowWindow {
		fmt.Printf("⌨️  Press 's' to save a report, 'q' to quit\n")
	}

	err := a.inspector.Run(ctx)
	cancel()
	return multierr.Append(err, group.Wait())
}

// Close releases everything NewApp acquired. The video source belongs to the
// inspection loop once Run has been called.
func (a *App) Close() error {
	var err error
	if a.source != nil && !a.started {
		err = multierr.Append(err, a.source.Close())
	}
	if a.controller != nil {
		err = multierr.Append(err, a.controller.Close())
	}
	if a.analyzer != nil {
		err = multierr.Append(err, a.analyzer.Close())
	}
	if a.detector != nil {
		err = multierr.Append(err, a.detector.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return err
}
