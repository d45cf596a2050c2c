package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/manojoshi/paramsearch/internal"
	"github.com/manojoshi/paramsearch/schema"
)

// EntityInfo is the json output of entities.
type EntityInfo struct {
	Name      string   `json:"name"`
	Table     string   `json:"table"`
	Fields    []string `json:"fields"`
	Relations []string `json:"relations,omitempty"`
}

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "entities",
		Short:         "List the entities of the catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSearcher(rootOpts)
			if err != nil {
				return err
			}
			reg := s.Registry()
			infos := make([]EntityInfo, 0, len(reg.Names()))
			for _, name := range reg.Names() {
				e, _ := reg.Entity(name)
				infos = append(infos, describe(e))
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ENTITY\tTABLE\tFIELDS\tRELATIONS")
			for _, i := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.Name, i.Table, strings.Join(i.Fields, ","), strings.Join(i.Relations, ","))
			}
			return w.Flush()
		},
	}
}

func describe(e *schema.Entity) EntityInfo {
	rels := make([]string, 0, len(e.Relations))
	for _, name := range internal.SortedKeys(e.Relations) {
		r := e.Relations[name]
		rels = append(rels, fmt.Sprintf("%s(%s→%s)", name, r.Kind, r.Target))
	}
	return EntityInfo{Name: e.Name, Table: e.Table, Fields: e.FieldNames(), Relations: rels}
}
