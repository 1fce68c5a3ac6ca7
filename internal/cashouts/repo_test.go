package cashouts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

func setupCashoutsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	cashouts := `
CREATE TABLE IF NOT EXISTS cashouts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  pix_key TEXT NOT NULL,
  error_detail TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(cashouts).Error)
	return db
}

func seedCashout(t *testing.T, db *gorm.DB, userID uuid.UUID, amount int64, status enums.CashoutStatus, created time.Time) *models.Cashout {
	t.Helper()

	cashout := &models.Cashout{
		ID:          uuid.New(),
		UserID:      userID,
		AmountCents: amount,
		Status:      status,
		PixKey:      "key@example.com",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(cashout).Error)
	return cashout
}

func TestMarkCompletedOnlyFromPending(t *testing.T) {
	db := setupCashoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cashout := seedCashout(t, db, uuid.New(), 5000, enums.CashoutStatusPending, time.Now().UTC())

	rows, err := repo.MarkCompleted(ctx, cashout.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.MarkCompleted(ctx, cashout.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "terminal rows never transition again")

	rows, err = repo.MarkFailed(ctx, cashout.ID, "late failure")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "completed rows cannot fail")
}

func TestMarkFailedRecordsDetail(t *testing.T) {
	db := setupCashoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cashout := seedCashout(t, db, uuid.New(), 5000, enums.CashoutStatusPending, time.Now().UTC())

	rows, err := repo.MarkFailed(ctx, cashout.ID, "pix rail down")
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	var reloaded models.Cashout
	require.NoError(t, db.Where("id = ?", cashout.ID).First(&reloaded).Error)
	assert.Equal(t, enums.CashoutStatusFailed, reloaded.Status)
	require.NotNil(t, reloaded.ErrorDetail)
	assert.Equal(t, "pix rail down", *reloaded.ErrorDetail)
}

func TestSumCompletedSince(t *testing.T) {
	db := setupCashoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	midnight := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	seedCashout(t, db, userID, 10000, enums.CashoutStatusCompleted, midnight.Add(time.Hour))
	seedCashout(t, db, userID, 20000, enums.CashoutStatusCompleted, midnight.Add(2*time.Hour))
	// Outside the window or not completed: ignored.
	seedCashout(t, db, userID, 40000, enums.CashoutStatusCompleted, midnight.Add(-time.Hour))
	seedCashout(t, db, userID, 80000, enums.CashoutStatusFailed, midnight.Add(3*time.Hour))
	seedCashout(t, db, userID, 160000, enums.CashoutStatusPending, midnight.Add(4*time.Hour))
	seedCashout(t, db, uuid.New(), 320000, enums.CashoutStatusCompleted, midnight.Add(time.Hour))

	total, err := repo.SumCompletedSince(ctx, userID, midnight)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), total)

	total, err = repo.SumCompletedSince(ctx, uuid.New(), midnight)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "no rows sums to zero")
}
