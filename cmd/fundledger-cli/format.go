package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

func formatJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode json: %v\n", err)
		os.Exit(1)
	}
}

// formatTable renders rows under dash-underlined headers with aligned
// columns. Every cell gets a terminating tab so the writer pads trailing
// columns too.
func formatTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	writeRow := func(cells []string) {
		fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
	}

	writeRow(headers)

	seps := make([]string, len(headers))
	for i, h := range headers {
		seps[i] = strings.Repeat("-", len(h))
	}

	writeRow(seps)

	for _, row := range rows {
		writeRow(row)
	}

	w.Flush() //nolint:errcheck // stdout write failures surface on exit.
}

func formatQuiet(id string) {
	fmt.Println(id)
}

// output picks the rendering for --format. Tabular views need explicit
// columns, so commands render those through formatTable themselves and
// anything left over comes out as JSON.
func output(v any, quietVal string) {
	if flagFmt == "quiet" {
		formatQuiet(quietVal)

		return
	}

	formatJSON(v)
}
