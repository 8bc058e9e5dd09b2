package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/reliefline/fundledger/client"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project-id> <amount>",
		Short: "Check whether a disbursement would be allowed",
		Long:  "Dry-run the threshold rules without writing anything. The decision carries the budget version to pass back via disburse --expected-version.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				fatal("parse amount", err)
			}
			decision, err := apiClient.Ledger.Validate(context.Background(), args[0], amount)
			if err != nil {
				fatal("validate", err)
			}
			quiet := "reject"
			if decision.CanCreate {
				quiet = "allow"
			}
			output(decision, quiet)
		},
	}
}

func newDisburseCmd() *cobra.Command {
	var (
		documentID      string
		actorID         string
		operation       string
		note            string
		dateStr         string
		expectedVersion int64
	)
	cmd := &cobra.Command{
		Use:   "disburse <project-id> <amount>",
		Short: "Record a disbursement against a project budget",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				fatal("parse amount", err)
			}
			req := &client.DisburseRequest{
				Amount:          amount,
				ActorID:         actorID,
				Operation:       operation,
				ExpectedVersion: expectedVersion,
			}
			if documentID != "" {
				req.DocumentID = &documentID
			}
			if note != "" {
				req.Meta = &client.EntryMeta{Manual: &client.ManualMeta{Note: note}}
			}
			if dateStr != "" {
				entryDate, err := parseEntryDate(dateStr)
				if err != nil {
					fatal("parse --date", err)
				}
				req.EntryDate = &entryDate
			}
			res, err := apiClient.Ledger.Disburse(context.Background(), args[0], req)
			if err != nil {
				if d, ok := client.RejectionDecision(err); ok {
					fmt.Fprintf(os.Stderr, "Rejected: %s (available %s, annual credit %s)\n",
						d.Message, d.RemainingAvailable.String(), d.RemainingCredit.String())
					os.Exit(1)
				}
				fatal("disburse", err)
			}
			output(res, strconv.FormatInt(res.EntryID, 10))
		},
	}
	cmd.Flags().StringVar(&documentID, "document", "", "Disbursement document reference")
	cmd.Flags().StringVar(&actorID, "actor", "", "Acting user or system identifier")
	cmd.Flags().StringVar(&operation, "operation", "", "Operation type (defaults to manual)")
	cmd.Flags().StringVar(&note, "note", "", "Free-text note stored with the entry")
	cmd.Flags().StringVar(&dateStr, "date", "", "Entry date, YYYY-MM-DD or RFC3339 (backdated entries are flagged retroactive)")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", 0, "Fail if the budget version has moved past this value")
	cmd.MarkFlagRequired("actor")
	return cmd
}

// parseEntryDate accepts a bare date or a full RFC3339 timestamp.
func parseEntryDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func newRollbackCmd() *cobra.Command {
	var (
		actorID string
		reason  string
	)
	cmd := &cobra.Command{
		Use:   "rollback <project-id> <entry-id>",
		Short: "Reverse a ledger entry with a compensating entry",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			entryID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				fatal("parse entry id", err)
			}
			req := &client.RollbackRequest{
				EntryID: entryID,
				ActorID: actorID,
				Reason:  reason,
			}
			res, err := apiClient.Ledger.Rollback(context.Background(), args[0], req)
			if err != nil {
				fatal("rollback", err)
			}
			output(res, strconv.FormatInt(res.EntryID, 10))
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "Acting user or system identifier")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the entry is being reversed")
	cmd.MarkFlagRequired("actor")
	return cmd
}
