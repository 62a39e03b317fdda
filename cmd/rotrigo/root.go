package main

import (
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/rotrigo/internal/logging"
	"github.com/aleksaelezovic/rotrigo/internal/storage"
	"github.com/aleksaelezovic/rotrigo/pkg/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	DataDir    string
	LogLevel   string
	LogFormat  string

	// Config is resolved before any subcommand runs
	Config *Config
}

// NewRootCommand creates the root command for the rotrigo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rotrigo",
		Short: "Read-only RDF statement indexes",
		Long: `rotrigo loads N-Quads into a badger store and answers statement
patterns from in-memory SPO and PSO indexes built over a snapshot of it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "badger data directory (overrides the config)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: trace|debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format: console|json")

	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := LoadConfig(o.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = o.DataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.LogFormat
	}

	if err := logging.Configure(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	o.Config = cfg
	return nil
}

// openStore opens the configured badger store
func (o *RootOptions) openStore(readOnly bool) (*store.TripleStore, error) {
	badgerStorage, err := storage.OpenBadger(storage.Options{
		Path:     o.Config.DataDir,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, err
	}
	return store.NewTripleStore(badgerStorage).WithBatchSize(o.Config.BatchSize), nil
}

// closeStore closes s, logging instead of returning the error
func closeStore(s *store.TripleStore) {
	if err := s.Close(); err != nil {
		logging.Error().Err(err).Msg("error closing store")
	}
}
