package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metrics and context stats over HTTP",
	Long: `serve keeps a host running and exposes /health, /metrics and /stats.
POST /run triggers one workload batch with the configured options.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Metrics.Listen = serveListen
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		h, err := newHost(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer h.close()

		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           newRouter(ctx, h),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("serving", zap.String("addr", srv.Addr))
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Dispatcher.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides metrics.listen)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(ctx context.Context, h *host) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"engine":    h.cfg.Engine.Kind,
			"shutdown":  h.d.HasShutdownStarted(),
			"pending":   h.d.Pending(),
			"timestamp": time.Now().UTC(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"live":    h.stats(),
			"reports": h.lastReports(10),
		})
	})

	r.POST("/run", func(c *gin.Context) {
		sum, err := h.runBatch(ctx, h.workloadOptions())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sum)
	})

	return r
}
