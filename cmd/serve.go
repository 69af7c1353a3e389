package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hn-frontpage/internal/server"
	"hn-frontpage/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the searchable front page over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		interval, err := cfg.RefreshInterval()
		if err != nil {
			return err
		}
		timeout, err := sourceTimeout(cfg)
		if err != nil {
			return err
		}
		if cfg.SlogLevel() > slog.LevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}

		sess, release, err := newSession(cfg)
		if err != nil {
			return err
		}
		defer release()

		httpServer := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      server.New(sess, timeout+5*time.Second),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: timeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		go func() {
			select {
			case s := <-sigc:
				slog.Info("serve: received signal, shutting down", "signal", s.String())
				cancel()
			case <-ctx.Done():
			}
		}()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			st := sess.Load(gctx)
			slog.Info("serve: initial load finished", "phase", st.Phase, "count", len(st.Stories))
			return nil
		})
		g.Go(func() error {
			slog.Info("serve: listening", "addr", cfg.Server.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		if interval > 0 {
			mgr := worker.NewManager(&worker.Refresher{Session: sess, Interval: interval, Timeout: timeout + 5*time.Second})
			slog.Info("serve: starting refresher", "interval", interval)
			g.Go(func() error { return mgr.Start(gctx) })
		}

		err = g.Wait()
		slog.Info("serve: stopped")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
