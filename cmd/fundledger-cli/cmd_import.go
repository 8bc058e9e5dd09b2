package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reliefline/fundledger/client"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var actorID string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk-apply disbursements from a CSV file",
		Long: `Apply disbursement rows from a CSV file as one import batch.

Expected columns: project_id,amount[,document_ref]. A header row whose first
field is "project_id" is skipped. Rows for the same project are applied in
file order; rows that fail validation are reported without stopping the rest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filePath := args[0]

			rows, err := readImportCSV(filePath)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("%s contains no data rows", filePath)
			}

			fmt.Fprintf(os.Stderr, "Import file: %d row(s) from %s\n", len(rows), filepath.Base(filePath))

			req := &client.ImportRequest{
				Rows:     rows,
				ActorID:  actorID,
				Filename: filepath.Base(filePath),
			}
			report, err := apiClient.Imports.Run(ctx, req)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Batch %s: %d row(s), %d matched, %d updated\n",
				report.BatchID, report.Rows, report.Matched, report.Updated)

			if len(report.Skipped) > 0 {
				fmt.Fprintf(os.Stderr, "%d skipped:\n", len(report.Skipped))
				for _, f := range report.Skipped {
					fmt.Fprintf(os.Stderr, "  - row %d (%s): %s\n", f.Row, f.ProjectID, f.Reason)
				}
			}
			if len(report.Errors) > 0 {
				fmt.Fprintf(os.Stderr, "%d error(s):\n", len(report.Errors))
				for _, f := range report.Errors {
					fmt.Fprintf(os.Stderr, "  - row %d (%s): %s\n", f.Row, f.ProjectID, f.Reason)
				}
			}

			output(report, report.BatchID)
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "Acting user or system identifier")
	cmd.MarkFlagRequired("actor")
	return cmd
}

// readImportCSV parses project_id,amount[,document_ref] rows. Amounts are
// validated locally so a typo fails before anything reaches the server.
func readImportCSV(path string) ([]client.ImportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	var rows []client.ImportRow
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "project_id") {
			continue // header row
		}
		if len(rec) < 2 || len(rec) > 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 columns, got %d", i+1, len(rec))
		}
		projectID := strings.TrimSpace(rec[0])
		if projectID == "" {
			return nil, fmt.Errorf("line %d: empty project_id", i+1)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad amount %q: %w", i+1, rec[1], err)
		}
		row := client.ImportRow{ProjectID: projectID, Amount: amount}
		if len(rec) == 3 {
			if ref := strings.TrimSpace(rec[2]); ref != "" {
				row.DocumentRef = &ref
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
