package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clipharvest/internal/config"
	"clipharvest/internal/extract"
	"clipharvest/internal/history"
	"clipharvest/internal/metrics"
	"clipharvest/internal/server"
)

var (
	flagListen string
	flagStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction API, the asset proxy and the web page",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config: 127.0.0.1:3000)")
	serveCmd.Flags().StringVar(&flagStatic, "static", "", "Directory of static files to serve at /")
}

func serveRun(cmd *cobra.Command, args []string) error {
	srvCfg := cfg.Server
	if flagListen != "" {
		srvCfg.Listen = flagListen
	}
	if flagStatic != "" {
		srvCfg.StaticDir = flagStatic
	}
	if srvCfg.StaticDir != "" {
		if _, err := os.Stat(srvCfg.StaticDir); err != nil {
			logger.Warn("static directory unavailable, serving API only", zap.String("dir", srvCfg.StaticDir), zap.Error(err))
			srvCfg.StaticDir = ""
		}
	}

	ex, err := newExtractor()
	if err != nil {
		return err
	}

	opts := server.Options{
		Config:     srvCfg,
		HostTokens: cfg.CDNHostTokens(),
		Extractor:  ex,
		Metrics:    metrics.New(),
		Logger:     logger.Named("server"),
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts.History = store
	}

	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

// newExtractor builds an extractor from the [extract] config section.
func newExtractor() (*extract.Extractor, error) {
	opts := append(cfg.ExtractOptions(), extract.WithLogger(logger.Named("extract")))
	ex, err := extract.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating extractor: %w", err)
	}
	return ex, nil
}

// openHistory opens the history store, or returns nil when history is disabled.
func openHistory() (*history.Store, error) {
	if !cfg.History {
		return nil, nil
	}
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}
