package store_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/dbpool"
	"github.com/reliefline/fundledger/internal/models"
	"github.com/reliefline/fundledger/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, 0)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupTestBase creates a Base and a unique test project id, with cleanup
// that removes every row the test created for that project.
func setupTestBase(t *testing.T) (store.Base, string) {
	t.Helper()

	env := getTestEnv(t)
	projectID := "test-" + time.Now().UTC().Format("20060102t150405") + "-" + randomSuffix()

	t.Cleanup(func() {
		ctx := context.Background()
		env.pool.Exec(ctx, "DELETE FROM ledger_entries WHERE project_id = $1", projectID)         //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM budget_notifications WHERE project_id = $1", projectID)   //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM disbursement_documents WHERE project_id = $1", projectID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM project_budgets WHERE project_id = $1", projectID)        //nolint:errcheck // best-effort cleanup
	})

	return store.Base{Pool: env.pool, Log: env.log}, projectID
}

var suffixCounter int

func randomSuffix() string {
	suffixCounter++

	return strconv.Itoa(os.Getpid()) + "-" + strconv.Itoa(suffixCounter)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// createTestBudget seeds a budget with the given figures and equal quarterly
// splits of the annual credit.
func createTestBudget(t *testing.T, base store.Base, projectID, total, credit string) *models.BudgetRecord {
	t.Helper()

	quarter := dec(credit).Div(dec("4")).Round(2)

	rec, err := store.NewBudgetStore(base).CreateBudget(context.Background(), models.CreateBudgetRequest{
		ProjectID:           projectID,
		TotalAllocation:     dec(total),
		AnnualCredit:        dec(credit),
		QuarterlyAllocation: [4]decimal.Decimal{quarter, quarter, quarter, quarter},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	return rec
}

// testEntry builds a ledger entry for a disbursement of amount, with the
// resulting figures computed from the record it will be applied to.
func testEntry(rec *models.BudgetRecord, amount string, at time.Time) *models.LedgerEntry {
	amt := dec(amount)

	return &models.LedgerEntry{
		ProjectID:             rec.ProjectID,
		DeltaAmount:           amt.Neg(),
		ResultingAvailable:    rec.AvailableAmount.Sub(amt),
		ResultingAnnualCredit: rec.AnnualCredit.Sub(amt),
		Operation:             models.OpManual,
		ActorID:               "test-actor",
		CreatedAt:             at,
	}
}
