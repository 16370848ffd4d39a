package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
	"github.com/angeloszaimis/cluster-transport/internal/transport"
)

var (
	nodesProbe   string
	nodesMetrics bool

	nodesCmd = &cobra.Command{
		Use:   "nodes",
		Short: "List the configured nodes and their health",
		RunE:  runNodes,
	}
)

func init() {
	nodesCmd.Flags().StringVar(&nodesProbe, "probe", "", "path to request once per node before listing, e.g. /")
	nodesCmd.Flags().BoolVar(&nodesMetrics, "metrics", false, "print collected metrics in Prometheus format")
}

func runNodes(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tr, collector, err := buildTransport(cfg, log)
	if err != nil {
		return err
	}
	collector.Start(ctx)

	if nodesProbe != "" {
		probeNodes(ctx, tr, len(cfg.Nodes))
	}

	for _, c := range poolConns(tr) {
		state := "alive"
		if !c.IsAlive() {
			state = fmt.Sprintf("dead (failures: %d, since: %s)", c.Failures(), c.LastFailure().Format("15:04:05"))
		}
		fmt.Printf("%s\t%s\n", c.URL(), state)
	}

	if nodesMetrics {
		fmt.Println()
		collector.WritePrometheus(os.Stdout)
	}

	return nil
}

// probeNodes issues one request per configured node so that round-robin
// selection touches each of them once.
func probeNodes(ctx context.Context, tr *transport.Transport, count int) {
	for i := 0; i < count; i++ {
		// Health state is what we came for; failures already marked it.
		_, _ = tr.Execute(ctx, &conn.Request{Method: http.MethodGet, Path: nodesProbe})
	}
}

func poolConns(tr *transport.Transport) []*conn.Conn {
	return tr.Pool().Conns()
}
