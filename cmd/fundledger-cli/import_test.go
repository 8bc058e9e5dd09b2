package main

import (
	"os"
	"path/filepath"
	"testing"
)

// writeCSV drops a temp CSV file and returns its path.
func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadImportCSV(t *testing.T) {
	path := writeCSV(t, "project_id,amount,document_ref\np1,100.50,DOC-1\np2,200,\np1,49.50,DOC-2\n")

	rows, err := readImportCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ProjectID != "p1" {
		t.Errorf("row 0 project: got %q, want %q", rows[0].ProjectID, "p1")
	}
	if rows[0].Amount.String() != "100.5" {
		t.Errorf("row 0 amount: got %s, want 100.5", rows[0].Amount)
	}
	if rows[0].DocumentRef == nil || *rows[0].DocumentRef != "DOC-1" {
		t.Errorf("row 0 document_ref: got %v, want DOC-1", rows[0].DocumentRef)
	}
	// Empty third column means no document reference.
	if rows[1].DocumentRef != nil {
		t.Errorf("row 1 document_ref should be nil, got %q", *rows[1].DocumentRef)
	}
}

func TestReadImportCSVNoHeader(t *testing.T) {
	path := writeCSV(t, "p1,75.25\np2,10\n")

	rows, err := readImportCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Amount.String() != "75.25" {
		t.Errorf("amount: got %s, want 75.25", rows[0].Amount)
	}
}

func TestReadImportCSVBadAmount(t *testing.T) {
	path := writeCSV(t, "project_id,amount\np1,not-a-number\n")

	if _, err := readImportCSV(path); err == nil {
		t.Error("expected error for non-numeric amount")
	}
}

func TestReadImportCSVEmptyProject(t *testing.T) {
	path := writeCSV(t, ",100\n")

	if _, err := readImportCSV(path); err == nil {
		t.Error("expected error for empty project_id")
	}
}

func TestReadImportCSVWrongColumnCount(t *testing.T) {
	path := writeCSV(t, "p1,100,DOC-1,extra-col\n")

	if _, err := readImportCSV(path); err == nil {
		t.Error("expected error for four columns")
	}
}

func TestReadImportCSVMissingFile(t *testing.T) {
	if _, err := readImportCSV(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
