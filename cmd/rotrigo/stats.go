package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/rotrigo/pkg/index"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store and index statistics",
		Long: `Print the number of quads and named graphs in the store, and the number
of distinct prefix keys of the indexes built over a snapshot of it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	tripleStore, err := opts.openStore(true)
	if err != nil {
		return err
	}
	defer closeStore(tripleStore)

	quads, err := tripleStore.Count()
	if err != nil {
		return err
	}
	graphs, err := tripleStore.GraphCount()
	if err != nil {
		return err
	}
	dataset, err := tripleStore.Snapshot()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "quads:        %s\n", humanize.Comma(quads))
	fmt.Fprintf(out, "named graphs: %s\n", humanize.Comma(graphs))
	writeIndexStats(out, dataset.Index(index.OrderSPO))
	writeIndexStats(out, dataset.Index(index.OrderPSO))
	return nil
}

func writeIndexStats(w io.Writer, idx *index.StatementIndex) {
	components := idx.Order().Components()
	fmt.Fprintf(w, "%s index:\n", idx.Order())
	for arity := 1; arity <= index.MaxArity; arity++ {
		var key string
		for _, c := range components[:arity] {
			key += c.String()
		}
		fmt.Fprintf(w, "  %-3s keys:   %s\n", key, humanize.Comma(int64(idx.KeyCount(arity))))
	}
}
