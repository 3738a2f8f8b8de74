package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(st *state) *cobra.Command {
	var output string
	var xlsx bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks and categories as JSON (or XLSX)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if xlsx && output == "" {
				return fmt.Errorf("--xlsx needs --output")
			}
			a, err := openApp(cmd.Context(), st.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if xlsx {
				err = a.svc.Transfer.ExportXLSX(cmd.Context(), w)
			} else {
				err = a.svc.Transfer.Export(cmd.Context(), w)
			}
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write an Excel workbook")
	return cmd
}

func newImportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON export; existing data is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := openApp(cmd.Context(), st.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.Transfer.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Summary())
			if result.CategoriesImported > 0 || result.CategoriesSkipped > 0 {
				fmt.Fprintf(out, "Categories: %d added, %d already existed.\n", result.CategoriesImported, result.CategoriesSkipped)
			}
			for _, failure := range result.Failures {
				fmt.Fprintf(out, "  skipped %s #%d: %s\n", failure.Kind, failure.Index+1, failure.Reason)
			}
			return nil
		},
	}
}

func newStatsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print task totals and the completion rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), st.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.svc.Reports.Stats(cmd.Context())
			if err != nil {
				return err
			}
			categories, err := a.svc.Categories.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:      %d\n", stats.Total)
			fmt.Fprintf(out, "Active:     %d\n", stats.Active)
			fmt.Fprintf(out, "Completed:  %d\n", stats.Completed)
			fmt.Fprintf(out, "Overdue:    %d\n", stats.Overdue)
			fmt.Fprintf(out, "Completion: %d%%\n", stats.CompletionRate)
			if len(categories) > 0 {
				fmt.Fprintln(out, "\nCategories:")
				for _, c := range categories {
					fmt.Fprintf(out, "  %-20s %d\n", c.Name, c.Count)
				}
			}
			return nil
		},
	}
}
