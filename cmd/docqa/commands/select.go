package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewSelectCmd constructs the `docqa select` command, which marks or unmarks
// documents for restricted retrieval with `docqa ask --selected`.
func NewSelectCmd() *cobra.Command {
	var unselect bool

	cmd := &cobra.Command{
		Use:   "select [id...]",
		Short: "Mark documents as selected for retrieval",
		Long: `Mark documents as selected. The selection is a persistent working set:
'docqa ask --selected' restricts retrieval to it.

Unknown IDs are ignored; the command prints the IDs actually updated.

Examples:
  docqa select 1 4 9
  docqa select --unselect 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ids, err := parseDocumentIDs(args)
			if err != nil {
				return fmt.Errorf("select: %w", err)
			}

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("select: %w", err)
			}
			defer func() { _ = st.Close() }()

			updated, err := st.SetSelected(ctx, ids, !unselect)
			if err != nil {
				return fmt.Errorf("select: %w", err)
			}

			verb := "selected"
			if unselect {
				verb = "unselected"
			}
			fmt.Fprintf(os.Stdout, "%s %d document(s):", verb, len(updated))
			for _, id := range updated {
				fmt.Fprintf(os.Stdout, " %d", id)
			}
			fmt.Fprintln(os.Stdout)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unselect, "unselect", false, "Remove documents from the selection instead of adding them")

	return cmd
}
