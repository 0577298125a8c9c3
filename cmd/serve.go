package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom/internal/jobs"
	"github.com/KaramelBytes/surveyloom/internal/pipeline"
	"github.com/KaramelBytes/surveyloom/internal/server"
)

var (
	srvAddr        string
	srvConcurrency int
	srvInput       inputFlags
	srvFlags       analysisFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for uploading and analyzing surveys",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		addr := c.ServerAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		log := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opt, cleanup, err := pipelineOptions(ctx, cmd, &srvInput, &srvFlags, log)
		if err != nil {
			return err
		}
		defer cleanup()

		analyze := func(ctx context.Context, id, path string) (*pipeline.Result, error) {
			jopt := opt
			jopt.ID = id
			jopt.OutputDir = filepath.Join(c.OutputDir, id)
			// the manager records job status itself
			jopt.Recorder = nil
			return pipeline.Run(ctx, path, jopt)
		}
		mopts := []jobs.Option{jobs.WithConcurrency(srvConcurrency), jobs.WithLogger(log)}
		if opt.Recorder != nil {
			mopts = append(mopts, jobs.WithRecorder(opt.Recorder))
		}
		manager := jobs.NewManager(ctx, analyze, mopts...)

		srv := &http.Server{
			Addr: addr,
			Handler: server.NewRouter(manager, server.Config{
				UploadDir:   c.UploadDir,
				RateLimit:   c.ServerRateLimit,
				Burst:       c.ServerBurst,
				CORSOrigins: c.CORSOrigins,
				Logger:      log,
			}),
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("server listening", "addr", addr, "uploads", c.UploadDir, "exports", c.OutputDir)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (Ctrl+C to stop)\n", addr)

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server: %w", err)
			}
		case <-ctx.Done():
		}
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown error", "error", err)
		}
		manager.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default: config server_addr)")
	serveCmd.Flags().IntVar(&srvConcurrency, "concurrency", 2, "analyses running at once")
	srvInput.register(serveCmd)
	srvFlags.register(serveCmd)
}
