package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-talk/internal/cli"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation about your expenses",
		RunE:  runChat,
	}
	cmd.Flags().Bool("trace", false, "show the thinking trace after every answer")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")
	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	showTrace, _ := cmd.Flags().GetBool("trace")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if metricsAddr == "" {
		metricsAddr = a.settings.Metrics.Addr
	}

	out := cmd.OutOrStdout()
	interrupts := cli.NewInterruptHandler(out)
	ctx := interrupts.HandleInterrupts(cmd.Context())
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if metricsAddr != "" {
		shutdown := serveMetrics(metricsAddr, a)
		defer shutdown()
	}

	go func() {
		dirs := append([]string{a.settings.Model.CacheDir}, a.settings.Model.Dirs...)
		if err := llm.WatchModelDirs(ctx, dirs, a.logger, a.locator, a.manager); err != nil {
			a.logger.Debug("Not watching model directories", "error", err)
		}
	}()

	_, _ = fmt.Fprintln(out, cli.FormatTitle("spice-talk"))
	_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render(`Type an expense or a question. "quit" leaves.`))

	reader := cli.NewLineReader(os.Stdin, out)
	for {
		line, err := reader.Prompt(ctx, "you")
		switch {
		case errors.Is(err, cli.ErrInputCancelled), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "bye":
			_, _ = fmt.Fprintln(out, cli.FormatInfo("See you later! "+cli.SpiceIcon))
			return nil
		}

		spinner := cli.NewStepSpinner(cmd.ErrOrStderr())
		err = a.exchange(ctx, out, line, showTrace, spinner.Step)
		spinner.Done()
		if err != nil {
			a.logger.Debug("exchange failed", "error", err)
		}
	}
}

// serveMetrics exposes /metrics until the returned shutdown func runs.
func serveMetrics(addr string, a *app) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("Metrics server stopped", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("Serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
