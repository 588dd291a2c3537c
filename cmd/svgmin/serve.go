package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tinywasm/svgmin"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Serve the HTTP API. With --watch, the given file is reprocessed on every save and its latest result is served under /api/session.",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addConfigFlags(cmd)
	cmd.Flags().String("watch", "", "svg file to watch")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	pcfg, err := cfg.pipelineConfig(logger)
	if err != nil {
		return err
	}

	h, err := svgmin.NewHandler(pcfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if path, _ := cmd.Flags().GetString("watch"); path != "" {
		session := svgmin.NewSession(pcfg)
		defer session.Close()
		session.OnResult(func(r *svgmin.Result) {
			logger.Info("processed", "valid", r.Report.IsValid, "bytes", r.Stats.OptimizedSizeBytes, "reduction", r.Stats.ReductionPercent)
		})
		if err := watchFile(ctx, session, path, logger); err != nil {
			return err
		}
		h.AttachSession(session)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// watchFile loads path into session and keeps feeding it on every change.
// The parent directory is watched because editors often save by replacing
// the file.
func watchFile(ctx context.Context, session *svgmin.Session, path string, logger *charmlog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := session.NewFileEvent(abs, "create"); err != nil {
		return err
	}
	session.Flush()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				name := eventName(event.Op)
				if name == "" {
					continue
				}
				if err := session.NewFileEvent(abs, name); err != nil {
					logger.Warn("file event", "event", name, "err", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("watcher", "err", err)
			}
		}
	}()
	return nil
}

func eventName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	}
	return ""
}
