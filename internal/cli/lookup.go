package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newLookupCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <vin>",
		Short: "Print normalized vehicle details as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService()
			if err != nil {
				return err
			}

			details, err := svc.GetVehicleDetails(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}

			out, err := json.MarshalIndent(details, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
