package main

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angeloszaimis/cluster-transport/config"
	"github.com/angeloszaimis/cluster-transport/internal/conn"
	"github.com/angeloszaimis/cluster-transport/internal/metrics"
	"github.com/angeloszaimis/cluster-transport/internal/pool"
	"github.com/angeloszaimis/cluster-transport/internal/selector"
	"github.com/angeloszaimis/cluster-transport/internal/transport"
	"github.com/angeloszaimis/cluster-transport/pkg/logger"
)

var (
	cfg *config.Config
	log *slog.Logger

	rootCmd = &cobra.Command{
		Use:               "clustertool",
		Short:             "Diagnostic client for a cluster of interchangeable HTTP nodes",
		Long:              "clustertool executes requests against a cluster of HTTP nodes with round-robin selection, health tracking and automatic failover.",
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(nodesCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	// .env is optional
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	log = logger.New(cfg.Logging.Level, false, cfg.Logging.Environment)
	return nil
}

// buildTransport wires the pool, selector, metrics collector and transport
// from the loaded configuration.
func buildTransport(cfg *config.Config, log *slog.Logger) (*transport.Transport, *metrics.Collector, error) {
	conns, err := buildConns(cfg)
	if err != nil {
		return nil, nil, err
	}

	baseDelay, err := time.ParseDuration(cfg.Revival.BaseDelay)
	if err != nil {
		return nil, nil, err
	}

	maxDelay, err := time.ParseDuration(cfg.Revival.MaxDelay)
	if err != nil {
		return nil, nil, err
	}

	p := pool.New(conns, pool.Config{
		Selector:  createSelector(log, cfg.Selector.Type),
		BaseDelay: baseDelay,
		MaxDelay:  maxDelay,
	}, log)

	collector := metrics.NewCollector(64, log)

	trace := logger.NewTrace(cfg.Logging.Trace, cfg.Logging.Environment)

	tr := transport.New(p, transport.Config{
		MaxRetries:    cfg.Transport.MaxRetries,
		RetryStatuses: cfg.Transport.RetryStatuses,
	}, log, trace, collector)

	return tr, collector, nil
}

func buildConns(cfg *config.Config) ([]*conn.Conn, error) {
	requestTimeout, err := time.ParseDuration(cfg.Transport.RequestTimeout)
	if err != nil {
		return nil, err
	}

	conns := make([]*conn.Conn, 0, len(cfg.Nodes))

	for _, node := range cfg.Nodes {
		u, err := url.Parse(node.URL)
		if err != nil {
			return nil, err
		}

		conns = append(conns, conn.New(u, conn.NewHTTPPerformer(u, requestTimeout)))
	}

	return conns, nil
}

func createSelector(logger *slog.Logger, selectorType string) selector.Selector {
	switch selectorType {
	case config.SelectorRoundRobin:
		return selector.NewRoundRobinSelector()
	case config.SelectorRandom:
		return selector.NewRandomSelector()
	default:
		logger.Warn("Unknown selector, defaulting to round-robin", slog.String("requested", selectorType))
		return selector.NewRoundRobinSelector()
	}
}
