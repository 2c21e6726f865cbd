// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon owns the long-lived runtime lifecycle: it starts the
// broadcast server, drives the capture source and the status server, and
// tears everything down when the context is cancelled.
package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sensegrid/framecast/internal/capture"
)

// Broadcaster is the lifecycle slice of the broadcast server the app manages.
type Broadcaster interface {
	Start() error
	Stop() error
}

// StatusServer is the lifecycle slice of the HTTP status server.
type StatusServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// App wires the subsystems together and blocks in Run until shutdown.
type App struct {
	logger          zerolog.Logger
	broadcaster     Broadcaster
	source          capture.Source
	statusServer    StatusServer
	shutdownTimeout time.Duration
}

// NewApp creates the daemon orchestrator. statusServer may be nil.
func NewApp(logger zerolog.Logger, broadcaster Broadcaster, source capture.Source, statusServer StatusServer) *App {
	return &App{
		logger:          logger,
		broadcaster:     broadcaster,
		source:          source,
		statusServer:    statusServer,
		shutdownTimeout: 5 * time.Second,
	}
}

// Run starts every subsystem and blocks until ctx is cancelled or a fatal
// error occurs. The broadcast listeners are ready (or the bind error is
// known) before any capture cycle fires.
func (a *App) Run(ctx context.Context) error {
	if a.broadcaster == nil {
		return ErrMissingBroadcaster
	}
	if a.source == nil {
		return ErrMissingSource
	}

	if err := a.broadcaster.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.source.Run(ctx)
	})

	if a.statusServer != nil {
		g.Go(func() error {
			return a.statusServer.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()
			return a.statusServer.Shutdown(shCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return a.broadcaster.Stop()
	})

	err := g.Wait()
	a.logger.Info().
		Str("event", "daemon.stopped").
		Msg("daemon stopped")
	return err
}
