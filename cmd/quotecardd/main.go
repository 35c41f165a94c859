package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arran4/quotecard"
	"github.com/arran4/quotecard/internal/config"
	"github.com/arran4/quotecard/internal/logging"
	"github.com/arran4/quotecard/internal/metrics"
	"github.com/arran4/quotecard/internal/server"
	"github.com/arran4/quotecard/richtext"
	"github.com/arran4/quotecard/theme"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	port := flag.String("port", cfg.Port, "Port to listen on")
	flag.Parse()

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}, os.Stderr)
	if err != nil {
		fatal(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	themes := theme.LoadFile(cfg.ThemesPath, log)
	fonts, err := richtext.NewFontLibrary(dirFS(cfg.FontsDir), cfg.CacheTTL)
	if err != nil {
		log.WithError(err).Fatal("failed to load fonts")
	}
	renderer, err := quotecard.New(quotecard.Options{
		Themes:    themes,
		Fonts:     fonts,
		Assets:    dirFS(cfg.AssetsDir),
		Defaults:  &cfg.Defaults,
		Scale:     cfg.Scale,
		QueueSize: cfg.QueueSize,
		CacheTTL:  cfg.CacheTTL,
		Logger:    log,
		Metrics:   collector,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to start renderer")
	}

	limiter := server.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	srv := &http.Server{
		Addr: ":" + *port,
		Handler: server.NewRouter(server.Deps{
			Renderer:    renderer,
			Themes:      themes,
			Logger:      log,
			Metrics:     collector,
			Gatherer:    reg,
			RateLimiter: limiter,
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).WithField("themes", themes.Len()).Info("quotecardd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	limiter.Stop()
	renderer.Close()
}

func dirFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	return os.DirFS(dir)
}

func fatal(err error) {
	_, _ = os.Stderr.WriteString("quotecardd: " + err.Error() + "\n")
	os.Exit(1)
}
