package cli

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (c *CLI) browseCommand() *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "browse QUERY",
		Short: "Run a SELECT query and page through the results",
		Long: `Run a SELECT query and page through the results interactively.
Press enter on a row to print it in full.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readText(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			b, err := parseBindings(qf.binds)
			if err != nil {
				return err
			}
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			spinner := newSpinnerWithContext(ctx, "Running query...")
			spinner.Start()
			f, err := q.Select(ctx, text, b)
			spinner.Stop()
			if err != nil {
				return err
			}

			model := NewFrameModel("Results", f)
			final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			row, ok := final.(FrameModel).SelectedRow()
			if !ok {
				printDetail("No selection made")
				return nil
			}
			names := make([]string, 0, len(row))
			for name := range row {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				printKeyValue(name, row[name])
			}
			return nil
		},
	}
	qf.register(cmd)
	return cmd
}
