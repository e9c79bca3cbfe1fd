package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/fpnav/internal/config"
	"github.com/zeusync/fpnav/internal/core/collision"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"github.com/zeusync/fpnav/internal/injector"
	"github.com/zeusync/fpnav/internal/script"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		scenePath  = flag.String("scene", "", "path to a YAML scene file (overrides config)")
		scriptPath = flag.String("script", "", "replay a YAML input timeline instead of serving websocket clients")
	)
	flag.Parse()

	if err := run(*configPath, *scenePath, *scriptPath); err != nil {
		fmt.Fprintln(os.Stderr, "navsim:", err)
		os.Exit(1)
	}
}

func run(configPath, scenePath, scriptPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if scenePath != "" {
		cfg.Scene = scenePath
	}

	var timeline *script.Script
	if scriptPath != "" {
		s, err := script.Load(scriptPath)
		if err != nil {
			return err
		}
		timeline = s
	}

	rt, err := injector.InitializeRuntime(cfg)
	if err != nil {
		return err
	}
	logger := rt.Logger
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("navsim starting",
		log.String("session", rt.Session.ID()),
		log.String("model", cfg.Model),
		log.String("scene", cfg.Scene),
		log.String("script", scriptPath))

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Scene != "" {
		g.Go(func() error {
			err := <-rt.Loader.LoadAsync(gctx, cfg.Scene, func(o collision.Obstacle) {
				rt.Session.AddObstacle(o)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scene load incomplete", log.String("scene", cfg.Scene), log.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error { return rt.Session.Run(gctx) })

	if timeline != nil {
		g.Go(func() error {
			err := script.NewPlayer(timeline, logger).Play(gctx, rt.Session.Submit)
			if err == nil {
				snap := rt.Session.Snapshot()
				logger.Info("final pose",
					log.Vec3("position", snap.Position),
					log.Float64("yaw", snap.Yaw),
					log.Float64("pitch", snap.Pitch),
					log.Uint64("ticks", snap.Tick))
				cancel()
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		if err := rt.Server.Start(gctx); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			return rt.Server.Stop(stopCtx)
		})
	}

	err = g.Wait()
	logger.Info("navsim stopped", log.Uint64("ticks", rt.Session.Snapshot().Tick))
	return err
}
