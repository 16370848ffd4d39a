package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
	"github.com/angeloszaimis/cluster-transport/internal/transport"
)

var (
	reqMethod  string
	reqBody    string
	reqParams  []string
	reqVerbose bool

	requestCmd = &cobra.Command{
		Use:   "request [path]",
		Short: "Execute one request against the cluster",
		Args:  cobra.ExactArgs(1),
		RunE:  runRequest,
	}
)

func init() {
	requestCmd.Flags().StringVarP(&reqMethod, "method", "X", "GET", "HTTP method")
	requestCmd.Flags().StringVarP(&reqBody, "data", "d", "", "request body")
	requestCmd.Flags().StringArrayVarP(&reqParams, "param", "p", nil, "query parameter as key=value (repeatable)")
	requestCmd.Flags().BoolVarP(&reqVerbose, "verbose", "v", false, "print last-connection diagnostics")
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tr, collector, err := buildTransport(cfg, log)
	if err != nil {
		return err
	}
	collector.Start(ctx)

	params, err := parseParams(reqParams)
	if err != nil {
		return err
	}

	var body []byte
	if reqBody != "" {
		body = []byte(reqBody)
	}

	resp, err := tr.Execute(ctx, &conn.Request{
		Method: strings.ToUpper(reqMethod),
		Path:   args[0],
		Params: params,
		Body:   body,
	})
	if err != nil {
		log.Error("Request failed", slog.Any("err", err))
		return err
	}

	fmt.Println(resp.Status)
	if len(resp.Body) > 0 {
		fmt.Println(string(resp.Body))
	}

	if reqVerbose {
		printDiagnostics(tr)
	}

	return nil
}

func printDiagnostics(tr *transport.Transport) {
	c := tr.LastConn()
	if c == nil {
		return
	}

	last := c.LastExchange()
	fmt.Fprintf(os.Stderr, "node: %s\n", c.URL())
	if last.Response != nil {
		fmt.Fprintf(os.Stderr, "duration: %s\n", last.Response.Duration)
	}
	if last.Err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", last.Err)
	}
}

func parseParams(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, expected key=value", pair)
		}
		params.Add(key, value)
	}

	return params, nil
}
