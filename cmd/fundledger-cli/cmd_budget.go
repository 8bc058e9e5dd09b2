package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/reliefline/fundledger/client"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage project budgets",
	}
	cmd.AddCommand(budgetCreateCmd())
	cmd.AddCommand(budgetGetCmd())
	cmd.AddCommand(budgetListCmd())
	cmd.AddCommand(budgetArchiveCmd())
	return cmd
}

func budgetCreateCmd() *cobra.Command {
	var totalStr, creditStr, quartersStr string
	cmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Budget a project for the first time",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateBudgetRequest{ProjectID: args[0]}
			var err error
			if req.TotalAllocation, err = decimal.NewFromString(totalStr); err != nil {
				fatal("parse --total", err)
			}
			if req.AnnualCredit, err = decimal.NewFromString(creditStr); err != nil {
				fatal("parse --credit", err)
			}
			if req.QuarterlyAllocation, err = parseQuarters(quartersStr); err != nil {
				fatal("parse --quarters", err)
			}
			budget, err := apiClient.Budgets.Create(context.Background(), req)
			if err != nil {
				fatal("create budget", err)
			}
			output(budget, budget.ProjectID)
		},
	}
	cmd.Flags().StringVar(&totalStr, "total", "", "Total allocation, e.g. 1000.00")
	cmd.Flags().StringVar(&creditStr, "credit", "", "Annual credit limit")
	cmd.Flags().StringVar(&quartersStr, "quarters", "", "Four comma-separated quarterly allocations, e.g. 250,250,250,250")
	cmd.MarkFlagRequired("total")
	cmd.MarkFlagRequired("credit")
	cmd.MarkFlagRequired("quarters")
	return cmd
}

// parseQuarters splits "250,250,250,250" into the four quarterly figures.
func parseQuarters(s string) ([4]decimal.Decimal, error) {
	var out [4]decimal.Decimal
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return out, fmt.Errorf("expected 4 comma-separated amounts, got %d", len(parts))
	}
	for i, p := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("quarter %d: %w", i+1, err)
		}
		out[i] = d
	}
	return out, nil
}

func budgetGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <project-id>",
		Short: "Show a project's budget",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			budget, err := apiClient.Budgets.Get(context.Background(), args[0])
			if err != nil {
				fatal("get budget", err)
			}
			output(budget, budget.ProjectID)
		},
	}
}

func budgetListCmd() *cobra.Command {
	var status string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List project budgets",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.BudgetListOptions{
				Status: status,
				Limit:  limit,
				Offset: offset,
			}
			budgets, _, err := apiClient.Budgets.List(context.Background(), opts)
			if err != nil {
				fatal("list budgets", err)
			}
			if flagFmt == "table" {
				headers := []string{"PROJECT", "STATUS", "AVAILABLE", "ANNUAL CREDIT", "VERSION"}
				var rows [][]string
				for _, b := range budgets {
					rows = append(rows, []string{
						b.ProjectID, b.Status,
						b.AvailableAmount.String(), b.AnnualCredit.String(),
						fmt.Sprintf("%d", b.Version),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, b := range budgets {
					fmt.Println(b.ProjectID)
				}
				return
			}
			output(budgets, "")
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active|pending_funding|pending_reallocation|archived)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func budgetArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <project-id>",
		Short: "Archive a budget so it rejects further mutations",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			budget, err := apiClient.Budgets.Archive(context.Background(), args[0])
			if err != nil {
				fatal("archive budget", err)
			}
			output(budget, budget.ProjectID)
		},
	}
}
