package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/langchou/autodata/internal/validation"
)

func newReportCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report <vin>",
		Short: "Write the vehicle report PDF to a file",
		Long: `Fetch the full vehicle record and render it as a landscape PDF report.

Example:
  autodata report 1FTFW1ET1EFA00001 -o ford.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService()
			if err != nil {
				return err
			}

			pdf, err := svc.GetVehicleReport(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("report %s: %w", args[0], err)
			}

			path := output
			if path == "" {
				path = validation.NormalizeVIN(args[0]) + ".pdf"
			}
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s (%d bytes)\n", path, len(pdf))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to <vin>.pdf)")
	return cmd
}
