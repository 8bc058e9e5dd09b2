package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/reliefline/fundledger/client"
	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect funding and reallocation notifications",
	}
	cmd.AddCommand(notificationsListCmd())
	cmd.AddCommand(notificationsResolveCmd())
	cmd.AddCommand(notificationsPurgeCmd())
	return cmd
}

func notificationsListCmd() *cobra.Command {
	var (
		projectID string
		notifType string
		status    string
		limit     int
		offset    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.NotificationListOptions{
				ProjectID: projectID,
				Type:      notifType,
				Status:    status,
				Limit:     limit,
				Offset:    offset,
			}
			notifs, _, err := apiClient.Notifications.List(context.Background(), opts)
			if err != nil {
				fatal("list notifications", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "PROJECT", "TYPE", "AMOUNT", "STATUS", "CREATED"}
				var rows [][]string
				for _, n := range notifs {
					rows = append(rows, []string{
						fmt.Sprintf("%d", n.ID), n.ProjectID, n.Type,
						n.Amount.String(), n.Status,
						n.CreatedAt.Format(time.RFC3339),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, n := range notifs {
					fmt.Println(n.ID)
				}
				return
			}
			output(notifs, "")
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Filter by project")
	cmd.Flags().StringVar(&notifType, "type", "", "Filter by type (insufficient_funds|reallocation_recommended)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (open|resolved)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func notificationsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a notification handled",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fatal("parse notification id", err)
			}
			n, err := apiClient.Notifications.Resolve(context.Background(), id)
			if err != nil {
				fatal("resolve notification", err)
			}
			output(n, strconv.FormatInt(n.ID, 10))
		},
	}
}

func notificationsPurgeCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete resolved notifications older than the retention window",
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Notifications.Purge(context.Background(), retentionDays)
			if err != nil {
				fatal("purge notifications", err)
			}
			output(map[string]int{"deleted": deleted}, strconv.Itoa(deleted))
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 90, "Keep resolved notifications newer than this many days")
	return cmd
}
