package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/callparrot/plugin/ai/agent"
	"github.com/hrygo/callparrot/plugin/ai/metrics"
	"github.com/hrygo/callparrot/plugin/ai/timeout"
)

func newChatCmd(c *cli) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive console session",
		Long: `Start an interactive console session. Type 'quit' or 'exit' to end the
session and delete its state; end of input (Ctrl-D) leaves the state stored so
the session can be resumed with --session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())

			in := agent.NewScanReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			a, err := newApp(ctx, c.profile, agent.NewLineCollector(in, out), reg)
			if err != nil {
				return err
			}
			defer a.Close()

			if sessionID == "" {
				sessionID = agent.NewSessionID()
			}
			slog.Debug("chat session started", "session_id", sessionID)

			return runChat(ctx, c.profile.MetricsAddr, reg, func(ctx context.Context) error {
				return runREPL(ctx, in, out, a.dispatcher, sessionID)
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "resume a stored session ID")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

// runChat runs repl and, when addr is set, a metrics server that stops with it.
func runChat(ctx context.Context, addr string, reg *prometheus.Registry, repl func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	replDone := make(chan struct{})

	g.Go(func() error {
		defer close(replDone)
		return repl(gctx)
	})

	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			slog.Info("metrics server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-replDone:
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// runREPL reads utterances until quit, end of input or ctx cancellation.
func runREPL(ctx context.Context, in agent.LineReader, out io.Writer, d *agent.Dispatcher, sessionID string) error {
	fmt.Fprintln(out, "Chatbot initialized. Type 'quit' to exit.")

	for {
		fmt.Fprint(out, "You: ")
		line, err := in.ReadLine(ctx)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		utterance := strings.TrimSpace(line)
		if utterance == "" {
			continue
		}

		switch strings.ToLower(utterance) {
		case "quit", "exit":
			if err := d.End(context.WithoutCancel(ctx), sessionID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		reply, err := d.Dispatch(ctx, sessionID, utterance)
		if err != nil {
			slog.Error("session store failure", "session_id", sessionID, "error", err)
			if reply == "" {
				reply = "Sorry, something went wrong on my side. Please try again."
			}
		}
		fmt.Fprintf(out, "Bot: %s\n", reply)
	}
}
