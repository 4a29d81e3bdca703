package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vedantwpatil/focusglide/internal/atspi"
	"github.com/vedantwpatil/focusglide/internal/config"
	"github.com/vedantwpatil/focusglide/internal/editing"
	"github.com/vedantwpatil/focusglide/internal/motion"
	"github.com/vedantwpatil/focusglide/internal/recording"
	"github.com/vedantwpatil/focusglide/internal/tracking"
)

type Application struct {
	config     *config.Config
	configPath string
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewApplication(cfg *config.Config, configPath string, logger *slog.Logger) *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		config:     cfg,
		configPath: configPath,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// handleSignals cancels the application on the first SIGINT or SIGTERM.
func (app *Application) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			app.logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
			app.cancel()
		case <-app.ctx.Done():
		}
	}()
}

// accessibility connects to AT-SPI if it is there. The engine runs without
// targets or menu suppression otherwise.
func (app *Application) accessibility() *atspi.Client {
	client, err := atspi.Dial(app.logger.With(slog.String("component", "atspi")))
	if err != nil {
		app.logger.Warn("accessibility unavailable, magnetism and menu detection disabled", slog.Any("error", err))
		return nil
	}
	return client
}

// runEngine drives the cursor until interrupted, hot-reloading settings when
// a config file is in use.
func (app *Application) runEngine() error {
	defer app.cancel()
	app.handleSignals()

	hook := tracking.NewHookSource(app.logger.With(slog.String("component", "hook")))
	deps := motion.Deps{
		Input:    hook,
		Pointer:  tracking.NewPointer(hook),
		Displays: tracking.NewDisplays(),
	}
	if client := app.accessibility(); client != nil {
		defer client.Close()
		deps.Elements = client
		deps.Menus = client
	}

	coordinator, err := motion.New(app.config.Engine(), deps, motion.WithLogger(app.logger))
	if err != nil {
		return err
	}
	coordinator.Subscribe(func(running bool) {
		app.logger.Info("engine state changed", slog.Bool("running", running))
	})

	g, ctx := errgroup.WithContext(app.ctx)
	g.Go(func() error {
		if err := coordinator.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		coordinator.Stop()
		return nil
	})

	if app.configPath != "" {
		watcher, err := config.NewWatcher(app.configPath, app.config, app.logger.With(slog.String("component", "config")))
		if err != nil {
			app.logger.Warn("settings hot-reload disabled", slog.Any("error", err))
		} else {
			defer watcher.Close()
			watcher.Subscribe(func(cfg *config.Config) {
				if err := coordinator.Reconfigure(cfg.Engine()); err != nil {
					app.logger.Warn("tuning rejected", slog.Any("error", err))
				}
				if err := coordinator.ApplySettings(cfg.Settings); err != nil {
					app.logger.Warn("settings rejected", slog.Any("error", err))
				}
			})
			g.Go(func() error {
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	err = g.Wait()
	stats := coordinator.Stats()
	app.logger.Info("engine finished",
		slog.Uint64("inputs", stats.InputsAccepted),
		slog.Uint64("glides", stats.Glides),
		slog.Uint64("warps", stats.Warps))
	return err
}

// record captures raw input into a trace file until interrupted.
func (app *Application) record(path string) error {
	defer app.cancel()
	app.handleSignals()

	hook := tracking.NewHookSource(app.logger.With(slog.String("component", "hook")))
	pointer := tracking.NewPointer(nil)
	displays := tracking.NewDisplays()

	recorder := recording.NewRecorder(hook, app.logger)
	if err := recorder.Start(pointer.Position(), displays.Bounds()); err != nil {
		return err
	}
	fmt.Println("Recording pointer input... Press Ctrl+C to stop.")
	<-app.ctx.Done()

	trace, err := recorder.Stop()
	if err != nil {
		return err
	}

	if client := app.accessibility(); client != nil {
		defer client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		trace.CaptureElements(ctx, client, app.config.Tracker.SearchRadius)
	}

	if err := recording.Save(path, trace); err != nil {
		return fmt.Errorf("failed to save trace: %w", err)
	}
	fmt.Printf("Saved %d samples (%d elements) to %s\n", len(trace.Samples), len(trace.Elements), path)
	return nil
}

// replay plays a trace through the engine and reports on the result.
func (app *Application) replay(path, videoPath string, fps float64) error {
	defer app.cancel()
	app.handleSignals()

	trace, err := recording.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("Replaying %s: %d samples over %v\n", trace.ID, len(trace.Samples), trace.Duration().Round(time.Millisecond))

	res, err := editing.Replay(app.ctx, trace, app.config.Engine(), editing.ReplayOptions{Logger: app.logger})
	if err != nil {
		return err
	}

	if plot := editing.SpeedPlot(res.Raw, 10, "raw speed (px/s)"); plot != "" {
		fmt.Println(plot)
	}
	if plot := editing.SpeedPlot(res.Smoothed, 10, "engine speed (px/s)"); plot != "" {
		fmt.Println(plot)
	}
	fmt.Printf("inputs %d accepted, %d rejected; %d glides; %d warps; %d targets\n",
		res.Stats.InputsAccepted, res.Stats.InputsRejected, res.Stats.Glides, res.Stats.Warps, res.Stats.TargetsApplied)

	if videoPath == "" {
		return nil
	}
	bar := editing.NewProgressBar(os.Stderr, "Rendering trail")
	return editing.RenderTrail(videoPath, res, editing.TrailOptions{FPS: fps, Progress: bar})
}
