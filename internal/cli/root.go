// Package cli implements the searchctl commands.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/manojoshi/paramsearch/config"
	"github.com/manojoshi/paramsearch/search"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Catalog string
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for searchctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "searchctl",
		Short: "Inspect parameter searches against an entity catalog",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Catalog == "" {
				return fmt.Errorf("--catalog is required")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Catalog, "catalog", "c", "", "entity catalog (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewEntitiesCommand(opts))

	return cmd
}

func loadSearcher(opts *RootOptions) (*search.Searcher, error) {
	cat, err := config.Load(opts.Catalog)
	if err != nil {
		return nil, err
	}
	return cat.Searcher()
}
