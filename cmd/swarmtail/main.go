package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/swarmtail/internal/app"
	"github.com/five82/swarmtail/internal/logstream"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "swarmtail: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:           "swarmtail",
		Short:         "Live log viewer for Docker Swarm services",
		Long:          "swarmtail streams service logs from a Swarm dashboard API into a terminal UI, or headless to stdout.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/swarmtail/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/swarmtail/prefs.toml)")
	flags.StringVar(&opts.BaseURL, "base-url", "", "dashboard API root, overrides base_url")
	flags.IntVar(&opts.PollEvery, "poll", 0, "catalog refresh interval in seconds (default from config)")

	root.AddCommand(
		newTailCmd(&opts),
		newServicesCmd(&opts),
		newSinceCmd(),
		newServeCmd(&opts),
	)
	return root
}

func newTailCmd(opts *app.Options) *cobra.Command {
	var t app.TailOptions

	cmd := &cobra.Command{
		Use:   "tail SERVICE",
		Short: "Stream one service's logs to stdout",
		Long:  "Stream one service's logs to stdout. SERVICE is a service ID or name from `swarmtail services`.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Options = *opts
			t.Source = args[0]
			t.LogWriter = cmd.ErrOrStderr()
			return app.Tail(cmd.Context(), t, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&t.Tail, "tail", "", "number of lines to keep (default from config)")
	flags.StringVar(&t.Since, "since", "", "relative duration (5m, 2h, 1d) or ISO-8601 timestamp (default from config)")
	flags.BoolVarP(&t.Follow, "follow", "f", false, "keep streaming new lines")
	flags.BoolVarP(&t.Timestamps, "timestamps", "t", false, "prefix each line with its timestamp")
	flags.BoolVar(&t.Stdout, "stdout", true, "include stdout")
	flags.BoolVar(&t.Stderr, "stderr", true, "include stderr")
	flags.BoolVar(&t.Details, "details", false, "include extra log attributes")
	return cmd
}

func newServicesCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List streamable services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Services(cmd.Context(), *opts, cmd.OutOrStdout())
		},
	}
}

func newSinceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "since EXPR",
		Short: "Check a since expression and print the time it resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := logstream.ParseSince(args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), at.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newServeCmd(opts *app.Options) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve local log files over the dashboard log API",
		Long:  "Serve the [[relay.sources]] files from the config over the same catalog and websocket API the viewer consumes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Serve(cmd.Context(), *opts, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}
