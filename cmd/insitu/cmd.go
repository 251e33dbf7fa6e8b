package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viant/insitu"
	"github.com/viant/insitu/program"
	"github.com/viant/insitu/runtime/puppet"
)

var (
	sessionURL string
	configURL  string
	rounds     int
	logLevel   string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "insitu",
		Short:        "in-situ coupling runtime",
		SilenceUsage: true,
	}
	cmd.AddCommand(runCmd(), programsCmd())
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a session",
		Long:  `run a session description (world size, groups and per-group puppet command lines). Requires '-c'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionURL == "" {
				return fmt.Errorf("must supply a session with -c")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&sessionURL, "session", "c", "", "session description URL")
	flags.StringVar(&configURL, "config", "", "runtime configuration URL")
	flags.IntVarP(&rounds, "rounds", "r", -1, "override the session round limit, 0 runs until the drivers stop")
	flags.StringVarP(&logLevel, "log-level", "l", "", "override the logging level")
	return cmd
}

func programsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "list the built-in programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := puppet.NewRegistry()
			program.Register(registry)
			for _, name := range registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func run(ctx context.Context, out io.Writer) error {
	config := insitu.DefaultConfig()
	var err error
	if configURL != "" {
		if config, err = insitu.LoadConfig(ctx, configURL); err != nil {
			return err
		}
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	session, err := insitu.LoadSession(ctx, sessionURL)
	if err != nil {
		return err
	}
	if rounds >= 0 {
		session.Rounds = rounds
	}
	srv, err := insitu.New(insitu.WithConfig(config))
	if err != nil {
		return err
	}
	defer srv.Close()
	times, err := srv.RunSession(ctx, session)
	report(out, times)
	return err
}

func report(out io.Writer, times []insitu.PuppetTime) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tGROUP\tPUPPET\tSTEPS\tTOTAL")
	for _, t := range times {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", t.Rank, t.Group, t.Puppet, t.Steps, t.Total)
	}
	_ = w.Flush()
}
