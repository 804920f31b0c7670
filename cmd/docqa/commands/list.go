package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd constructs the `docqa list` command, which prints the document
// catalogue as a table.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ingested documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			defer func() { _ = st.Close() }()

			docs, err := st.ListDocuments(ctx)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSELECTED\tCHARS\tFILENAME")
			for _, d := range docs {
				sel := ""
				if d.Selected {
					sel = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", d.ID, sel, len(d.Content), d.Filename)
			}
			return w.Flush() //nolint:wrapcheck // stdout flush, nothing to add
		},
	}
}
