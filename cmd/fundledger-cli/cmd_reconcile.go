package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "reconcile <project-id>",
		Short: "Compare ledger spend against disbursement documents for a period",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			result, err := apiClient.Reconciliation.Run(context.Background(), args[0], from, to)
			if err != nil {
				fatal("reconcile", err)
			}
			if result.HasMismatch {
				fmt.Fprintf(os.Stderr, "Mismatch: ledger %s vs documents %s (difference %s)\n",
					result.LedgerTotal.String(), result.DocumentTotal.String(), result.MismatchAmount.String())
			}
			quiet := "clean"
			if result.HasMismatch {
				quiet = result.MismatchAmount.String()
			}
			output(result, quiet)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Period start (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Period end (a bare date covers the whole day)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}
