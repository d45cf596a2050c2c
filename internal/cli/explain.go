package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/repository"
	"github.com/manojoshi/paramsearch/search"
)

// ExplainResult is the json output of explain.
type ExplainResult struct {
	Entity    string `json:"entity"`
	Backend   string `json:"backend"`
	Statement string `json:"statement"`
	Args      []any  `json:"args,omitempty"`
}

type explainOptions struct {
	dialect   string
	index     string
	relations bool
	limit     int
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &explainOptions{}

	cmd := &cobra.Command{
		Use:   "explain <entity> [key=value...]",
		Short: "Print the statement a search compiles to",
		Long: `Translate request parameters into the statement the search would run,
without connecting to a database.

Repeating a key, or writing it as key[]=value, makes it a list.`,
		Example: `  searchctl -c blog.yaml explain post status=open author_name=ann sortByDesc=id
  searchctl -c blog.yaml explain --redis blog_post post q=gopher`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, rootOpts, opts, args[0], args[1:])
		},
	}

	cmd.Flags().StringVarP(&opts.dialect, "dialect", "d", "sqlite3", "SQL dialect (sqlite3|mysql|postgres)")
	cmd.Flags().StringVar(&opts.index, "redis", "", "compile FT.SEARCH against this index instead of SQL")
	cmd.Flags().BoolVar(&opts.relations, "relations", true, "cascade into related entities")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", -1, "page size (-1 for none)")

	return cmd
}

func runExplain(cmd *cobra.Command, rootOpts *RootOptions, opts *explainOptions, entity string, pairs []string) error {
	s, err := loadSearcher(rootOpts)
	if err != nil {
		return err
	}
	params, err := parsePairs(pairs)
	if err != nil {
		return err
	}

	var backend repository.Backend
	if opts.index != "" {
		backend = repository.Redis(nil, func(string) string { return opts.index })
	} else {
		d, err := query.ParseDialect(opts.dialect)
		if err != nil {
			return err
		}
		backend = repository.SQL(nil, d)
	}

	var ropts []repository.Opt
	if !opts.relations {
		ropts = append(ropts, repository.WithoutRelations())
	}
	if opts.limit >= 0 {
		ropts = append(ropts, repository.Limit(0, opts.limit))
	}

	stmt, args, err := repository.New(s, backend).Explain(entity, params, ropts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ExplainResult{Entity: entity, Backend: backend.Name(), Statement: stmt, Args: args})
	}
	fmt.Fprintln(out, stmt)
	if len(args) > 0 {
		fmt.Fprintf(out, "-- args: %v\n", args)
	}
	return nil
}

// parsePairs reads key=value arguments the way a query string is read.
func parsePairs(pairs []string) (search.Params, error) {
	v := url.Values{}
	for _, p := range pairs {
		k, val, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q: want key=value", p)
		}
		v.Add(k, val)
	}
	return search.FromValues(v), nil
}
