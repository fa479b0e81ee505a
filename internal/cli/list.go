package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"conform/internal/exitcodes"
)

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered tests and their declared expectations",
		Long:  "Discovers test scripts and checks the naming convention without running the interpreter.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return withCode(exitcodes.ConfigErr, err)
			}
			decls, err := discover(opts, cfg, false)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(opts.stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Test", "Expectation", "Path"})
			for _, d := range decls {
				t.AppendRow(table.Row{d.Name, d.Expect.String(), d.Path})
			}
			t.AppendFooter(table.Row{"Total", len(decls), ""})
			t.Render()
			return nil
		},
	}
}
