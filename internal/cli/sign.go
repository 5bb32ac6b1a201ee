package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/langchou/autodata/internal/api/chromedata"
)

func newSignCommand(opts *options) *cobra.Command {
	var (
		nonce     string
		timestamp int64
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the Authorization header for a provider request",
		Long: `Build the signed Authorization header sent to Chrome Data.

Nonce and timestamp default to a fresh random nonce and the current time
in milliseconds. Pass both to reproduce a specific request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if nonce == "" {
				nonce = chromedata.NewNonce()
			}
			if !cmd.Flags().Changed("timestamp") {
				timestamp = time.Now().UnixMilli()
			}

			fmt.Fprintln(cmd.OutOrStdout(), chromedata.Sign(cfg.Credentials(), nonce, timestamp))
			return nil
		},
	}

	cmd.Flags().StringVar(&nonce, "nonce", "", "Nonce (defaults to a random value)")
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "Unix timestamp in milliseconds (defaults to now)")
	return cmd
}
