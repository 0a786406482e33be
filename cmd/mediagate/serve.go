// File: cmd/mediagate/serve.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/mediagate/control"
	"github.com/momentics/mediagate/internal/logging"
	"github.com/momentics/mediagate/processor"
	"github.com/momentics/mediagate/server"
)

const stopTimeout = 30 * time.Second

type serveOptions struct {
	configPath  string
	logLevel    string
	metricsAddr string
	watch       bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML configuration file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Address for /metrics and /debug/state; empty disables it")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "Reload log settings when the configuration file changes")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := control.Load(opts.configPath, opts.configPath == "")
	if err != nil {
		return err
	}
	if err := applyLogConfig(cfg, opts.logLevel); err != nil {
		return err
	}
	log := logging.Logger()

	resolved, problems := control.Resolve(cfg, log)
	for _, p := range problems {
		log.Error("invalid websocket setting", "error", p)
	}
	settings, err := server.Configure(resolved.Port, resolved.Path, resolved.Threads)
	if err != nil {
		return err
	}

	metrics := control.NewMetrics()
	probes := control.NewDebugProbes()
	srv, err := server.New(settings, processor.NewJSONRPC(log),
		server.WithLogger(log),
		server.WithMetrics(metrics),
		server.WithDebugProbes(probes),
		server.WithWriteTimeout(resolved.WriteTimeout),
		server.WithReadLimit(resolved.ReadLimit),
	)
	if err != nil {
		return err
	}

	addr := opts.metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Address
	}
	var obs *control.ObservabilityServer
	if addr != "" {
		if obs, err = control.NewObservabilityServer(addr, metrics, probes); err != nil {
			_ = srv.Stop()
			return err
		}
		go func() {
			if err := obs.Serve(); err != nil {
				log.Error("observability listener failed", "error", err)
			}
		}()
		log.Info("observability listener started", "addr", obs.Addr().String())
	}

	if opts.watch && opts.configPath != "" {
		store := control.NewConfigStore(cfg)
		store.OnReload(func(old, cur *control.Config) { onReload(log, opts.logLevel, settings, cur) })
		w, err := control.NewWatcher(opts.configPath, store, log)
		if err != nil {
			log.Warn("configuration hot reload disabled", "error", err)
		} else {
			defer w.Close()
			go func() { _ = w.Run(ctx) }()
		}
	}

	if err := srv.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("shutting down")

	done := make(chan error, 1)
	go func() { done <- srv.Stop() }()
	select {
	case err = <-done:
	case <-time.After(stopTimeout):
		err = fmt.Errorf("server did not stop within %s", stopTimeout)
	}
	if obs != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = obs.Shutdown(sctx)
		cancel()
	}
	return err
}

// applyLogConfig sets format and level. A level given on the command line wins
// over the file.
func applyLogConfig(cfg *control.Config, flagLevel string) error {
	if cfg.Log.Format != "" {
		if err := logging.SetFormat(cfg.Log.Format); err != nil {
			return err
		}
	}
	level := cfg.Log.Level
	if flagLevel != "" {
		level = flagLevel
	}
	if level != "" {
		return logging.SetLevel(level)
	}
	return nil
}

// onReload applies what can change at runtime and flags what needs a restart.
func onReload(log *slog.Logger, flagLevel string, running server.Settings, cur *control.Config) {
	if flagLevel == "" && cur.Log.Level != "" {
		if err := logging.SetLevel(cur.Log.Level); err != nil {
			log.Warn("ignoring reloaded log level", "error", err)
		}
	}
	next, _ := control.Resolve(cur, logging.Discard())
	if next.Port != running.Port || next.Path != running.Path || next.Threads != running.Threads {
		log.Warn("websocket settings changed; restart to apply",
			"port", next.Port, "path", next.Path, "threads", next.Threads)
	}
}
