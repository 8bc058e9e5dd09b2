package db

import (
	"strings"

	"github.com/reliefline/fundledger/internal/db/migrations"
)

// SchemaVersion returns the number of embedded SQL migration files, which
// equals the schema version a fully migrated database sits at. Logged at
// startup so operators can spot instances running behind.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			count++
		}
	}

	return count
}
