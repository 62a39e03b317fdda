package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/rotrigo/internal/logging"
	"github.com/aleksaelezovic/rotrigo/pkg/store"
)

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.nq>...",
		Short: "Load N-Quads files into the store",
		Long: `Load one or more N-Quads files into the store in the data directory,
creating it if needed. Quads already present are not duplicated.

Example:
  rotrigo load --data-dir ./data people.nq`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args, cmd)
		},
	}
}

func runLoad(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	tripleStore, err := opts.openStore(false)
	if err != nil {
		return err
	}
	defer closeStore(tripleStore)

	for _, path := range paths {
		started := time.Now()
		n, err := loadFile(tripleStore, path)
		if err != nil {
			return fmt.Errorf("failed to load %s after %d quads: %w", path, n, err)
		}
		logging.Info().Str("file", path).Int("quads", n).Dur("elapsed", time.Since(started)).Msg("loaded file")
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s quads\n", path, humanize.Comma(int64(n)))
	}
	if err := tripleStore.Sync(); err != nil {
		return fmt.Errorf("failed to sync store: %w", err)
	}
	return nil
}

func loadFile(tripleStore *store.TripleStore, path string) (int, error) {
	f, err := os.Open(path) // #nosec G304 - the path is given by the user
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return tripleStore.Load(f)
}
