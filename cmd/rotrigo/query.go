package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/rotrigo/internal/encoding"
	"github.com/aleksaelezovic/rotrigo/internal/logging"
	"github.com/aleksaelezovic/rotrigo/pkg/index"
	"github.com/aleksaelezovic/rotrigo/pkg/plan"
	"github.com/aleksaelezovic/rotrigo/pkg/rdf"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Subject   string
	Predicate string
	Object    string
	Graphs    []string
	Distinct  bool
	Offset    int
	Limit     int
	Explain   bool
	From      string
}

// defaultGraphName selects the statements without a context in --graph
const defaultGraphName = "default"

// termCodec maps terms to identifiers and back. It is implemented by the
// store and by an in-memory encoding.Dictionary.
type termCodec interface {
	Encode(term rdf.Term) (index.ID, error)
	Decode(id index.ID) (rdf.Term, error)
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the statements matching a pattern",
		Long: `Print the statements matching a pattern, one per line in N-Triples
syntax. Unset positions match anything. Terms are given in N-Quads syntax;
a bare value is read as an IRI.

By default the store in the data directory is read. With --from, an
N-Quads file is indexed in memory instead.

Examples:
  rotrigo query -p http://xmlns.com/foaf/0.1/knows
  rotrigo query -s http://example.org/alice -g default --distinct
  rotrigo query --from people.nq -o '"Alice"' --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Subject, "subject", "s", "", "subject term")
	cmd.Flags().StringVarP(&opts.Predicate, "predicate", "p", "", "predicate term")
	cmd.Flags().StringVarP(&opts.Object, "object", "o", "", "object term")
	cmd.Flags().StringArrayVarP(&opts.Graphs, "graph", "g", nil, `graph to match, repeatable; "default" for the default graph`)
	cmd.Flags().BoolVar(&opts.Distinct, "distinct", false, "drop duplicate statements from different graphs")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "skip the first n statements")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most n statements (0 for all)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the plan as a Graphviz digraph instead of running it")
	cmd.Flags().StringVar(&opts.From, "from", "", "index this N-Quads file in memory instead of reading the store")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 || opts.Offset < 0 {
		return errors.New("--limit and --offset must not be negative")
	}

	var (
		dataset *index.Dataset
		codec   termCodec
		err     error
	)
	if opts.From != "" {
		dataset, codec, err = indexFile(opts.From)
		if err != nil {
			return err
		}
	} else {
		tripleStore, err := opts.openStore(true)
		if err != nil {
			return err
		}
		defer closeStore(tripleStore)

		dataset, err = tripleStore.Snapshot()
		if err != nil {
			return err
		}
		codec = tripleStore
	}

	pattern, err := opts.pattern(codec)
	if err != nil {
		return err
	}
	logging.Debug().Stringer("pattern", pattern).Str("shape", pattern.Shape()).Msg("running query")

	op, err := plan.NewExecutor(dataset).Compile(opts.plan(pattern))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Explain {
		fmt.Fprint(out, plan.Dot(op))
		return op.Close()
	}

	count := 0
	for op.Next() {
		line, err := formatStatement(codec, op.Tuple())
		if err != nil {
			_ = op.Close() // #nosec G104 - the decode error is the one reported
			return err
		}
		fmt.Fprintln(out, line)
		count++
	}
	if err := op.Err(); err != nil {
		_ = op.Close() // #nosec G104 - the upstream error is the one reported
		return err
	}
	logging.Info().Int("statements", count).Msg("query finished")
	return op.Close()
}

// plan returns the plan node for the query
func (o *QueryOptions) plan(pattern index.Pattern) plan.Node {
	var node plan.Node = &plan.Scan{Pattern: pattern}
	if o.Distinct {
		node = &plan.Dedup{Input: node}
	}
	if o.Offset > 0 {
		node = &plan.Offset{Input: node, Offset: o.Offset}
	}
	if o.Limit > 0 {
		node = &plan.Limit{Input: node, Limit: o.Limit}
	}
	return node
}

// pattern encodes the pattern given by the flags
func (o *QueryOptions) pattern(codec termCodec) (index.Pattern, error) {
	var p index.Pattern
	var err error
	if p.Subject, err = encodeFlag(codec, "subject", o.Subject); err != nil {
		return p, err
	}
	if p.Predicate, err = encodeFlag(codec, "predicate", o.Predicate); err != nil {
		return p, err
	}
	if p.Object, err = encodeFlag(codec, "object", o.Object); err != nil {
		return p, err
	}
	for _, graph := range o.Graphs {
		if graph == defaultGraphName {
			p.Contexts = append(p.Contexts, index.Any)
			continue
		}
		id, err := encodeFlag(codec, "graph", graph)
		if err != nil {
			return p, err
		}
		p.Contexts = append(p.Contexts, id)
	}
	return p, nil
}

// encodeFlag parses and encodes a term flag. An empty value is the wildcard.
func encodeFlag(codec termCodec, name, value string) (index.ID, error) {
	if value == "" {
		return index.Any, nil
	}
	term, err := parseTermFlag(value)
	if err != nil {
		return index.Any, fmt.Errorf("invalid --%s: %w", name, err)
	}
	id, err := codec.Encode(term)
	if err != nil {
		return index.Any, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return id, nil
}

func parseTermFlag(value string) (rdf.Term, error) {
	switch value[0] {
	case '<', '"', '_':
		return rdf.ParseTerm(value)
	default:
		return rdf.NewNamedNode(value), nil
	}
}

func formatStatement(codec termCodec, tuple plan.Tuple) (string, error) {
	var sb strings.Builder
	for _, id := range tuple {
		term, err := codec.Decode(id)
		if err != nil {
			return "", err
		}
		sb.WriteString(term.String())
		sb.WriteByte(' ')
	}
	sb.WriteByte('.')
	return sb.String(), nil
}

// indexFile reads an N-Quads file into an in-memory dataset
func indexFile(path string) (*index.Dataset, *encoding.Dictionary, error) {
	f, err := os.Open(path) // #nosec G304 - the path is given by the user
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	quads, err := rdf.ParseNQuads(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	dict := encoding.NewDictionary()
	statements := make([]index.Statement, 0, len(quads))
	for _, quad := range quads {
		st, err := encodeQuad(dict, quad)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode %s: %w", quad, err)
		}
		statements = append(statements, st)
	}

	dataset, err := index.NewDataset(statements, false)
	if err != nil {
		return nil, nil, err
	}
	logging.Debug().Str("file", path).Int("statements", dataset.Len()).Int("strings", dict.Len()).Msg("indexed file in memory")
	return dataset, dict, nil
}

func encodeQuad(dict *encoding.Dictionary, quad *rdf.Quad) (index.Statement, error) {
	var st index.Statement
	var err error
	if st.Subject, err = dict.Encode(quad.Subject); err != nil {
		return st, err
	}
	if st.Predicate, err = dict.Encode(quad.Predicate); err != nil {
		return st, err
	}
	if st.Object, err = dict.Encode(quad.Object); err != nil {
		return st, err
	}
	if quad.Graph != nil && quad.Graph.Type() != rdf.TermTypeDefaultGraph {
		if st.Context, err = dict.Encode(quad.Graph); err != nil {
			return st, err
		}
	}
	return st, nil
}
