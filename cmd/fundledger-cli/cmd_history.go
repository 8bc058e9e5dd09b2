package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/reliefline/fundledger/client"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		projectID string
		operation string
		actorID   string
		from, to  string
		order     string
		limit     int
		offset    int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the ledger history",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.LedgerListOptions{
				ProjectID: projectID,
				Operation: operation,
				ActorID:   actorID,
				From:      from,
				To:        to,
				Order:     order,
				Limit:     limit,
				Offset:    offset,
			}
			entries, _, err := apiClient.Ledger.Entries(context.Background(), opts)
			if err != nil {
				fatal("query history", err)
			}
			printEntries(entries)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Filter by project")
	cmd.Flags().StringVar(&operation, "operation", "", "Filter by operation type (manual|automatic|import|rollback)")
	cmd.Flags().StringVar(&actorID, "actor", "", "Filter by actor")
	cmd.Flags().StringVar(&from, "from", "", "Entries on or after this date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Entries on or before this date (a bare date covers the whole day)")
	cmd.Flags().StringVar(&order, "order", "", "Sort order: asc|desc (default desc)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "batch <batch-id>",
		Short: "List the entries of one import batch in sequence order",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, _, err := apiClient.Ledger.Batch(context.Background(), args[0], limit, offset)
			if err != nil {
				fatal("get batch", err)
			}
			printEntries(entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

// printEntries renders ledger entries in the active output format.
func printEntries(entries []client.LedgerEntry) {
	if flagFmt == "table" {
		headers := []string{"ID", "PROJECT", "DELTA", "AVAILABLE", "OPERATION", "ACTOR", "CREATED"}
		var rows [][]string
		for _, e := range entries {
			rows = append(rows, []string{
				fmt.Sprintf("%d", e.ID), e.ProjectID,
				e.DeltaAmount.String(), e.ResultingAvailable.String(),
				e.Operation, e.ActorID,
				e.CreatedAt.Format(time.RFC3339),
			})
		}
		formatTable(headers, rows)
		return
	}
	if flagFmt == "quiet" {
		for _, e := range entries {
			fmt.Println(e.ID)
		}
		return
	}
	output(entries, "")
}
