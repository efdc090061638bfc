package ledger

import (
	"testing"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}))
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestCreate_NewTransaction(t *testing.T) {
	db := newTestDB(t)

	txn := models.Transaction{
		Reference:     "ref-1",
		Kind:          models.KindIncome,
		Amount:        300,
		Currency:      "TRY",
		SourceID:      uintPtr(2),
		DestinationID: uintPtr(1),
	}
	out, created, err := Create(db, &txn)

	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, out.ID)
}

func TestCreate_IdempotentOnReference(t *testing.T) {
	db := newTestDB(t)

	first := models.Transaction{Reference: "ref-1", Kind: models.KindIncome, Amount: 300, Currency: "TRY"}
	out1, created1, err := Create(db, &first)
	require.NoError(t, err)
	require.True(t, created1)

	// Aynı referansla tekrar: mevcut kayıt döner, yenisi açılmaz
	second := models.Transaction{Reference: "ref-1", Kind: models.KindIncome, Amount: 999, Currency: "TRY"}
	out2, created2, err := Create(db, &second)
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, out1.ID, out2.ID)
	assert.Equal(t, float64(300), out2.Amount)

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreate_Validation(t *testing.T) {
	db := newTestDB(t)

	_, _, err := Create(db, &models.Transaction{Reference: "", Kind: models.KindIncome, Amount: 10, Currency: "TRY"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = Create(db, &models.Transaction{Reference: "r", Kind: "refund", Amount: 10, Currency: "TRY"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = Create(db, &models.Transaction{Reference: "r", Kind: models.KindIncome, Amount: -1, Currency: "TRY"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = Create(db, &models.Transaction{Reference: "r", Kind: models.KindIncome, Amount: 10, Currency: "TL"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate(t *testing.T) {
	db := newTestDB(t)

	txn := models.Transaction{Reference: "ref-1", Kind: models.KindIncome, Amount: 300, Currency: "TRY"}
	_, _, err := Create(db, &txn)
	require.NoError(t, err)

	amount := 450.0
	desc := "düzeltme"
	out, err := Update(db, txn.ID, UpdateFields{Amount: &amount, Description: &desc})

	require.NoError(t, err)
	assert.Equal(t, 450.0, out.Amount)
	assert.Equal(t, "düzeltme", out.Description)
}

func TestUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	amount := 450.0
	_, err := Update(db, 999, UpdateFields{Amount: &amount})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestComputeBalance_Signs(t *testing.T) {
	db := newTestDB(t)

	// 1 numaralı aktör 300 alır, 120 gönderir
	_, _, err := Create(db, &models.Transaction{Reference: "a", Kind: models.KindIncome, Amount: 300, Currency: "TRY", SourceID: uintPtr(2), DestinationID: uintPtr(1)})
	require.NoError(t, err)
	_, _, err = Create(db, &models.Transaction{Reference: "b", Kind: models.KindOutgoing, Amount: 120, Currency: "TRY", SourceID: uintPtr(1), DestinationID: uintPtr(3)})
	require.NoError(t, err)

	balance, err := ComputeBalance(db, 1, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 180.0, balance)

	balance, err = ComputeBalance(db, 3, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 120.0, balance)
}

func TestComputeBalance_CurrencyIsolation(t *testing.T) {
	db := newTestDB(t)

	_, _, err := Create(db, &models.Transaction{Reference: "a", Kind: models.KindIncome, Amount: 300, Currency: "TRY", DestinationID: uintPtr(1)})
	require.NoError(t, err)
	_, _, err = Create(db, &models.Transaction{Reference: "b", Kind: models.KindIncome, Amount: 50, Currency: "EUR", DestinationID: uintPtr(1)})
	require.NoError(t, err)

	balance, err := ComputeBalance(db, 1, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 300.0, balance)
}

func TestComputeBalance_ExcludesUnapproved(t *testing.T) {
	db := newTestDB(t)

	pending := models.StatusPending
	completed := models.StatusCompleted

	txn := models.Transaction{Reference: "a", Kind: models.KindOutgoing, Amount: 200, Currency: "TRY", SourceID: uintPtr(1), DestinationID: uintPtr(2), ApprovalStatus: &pending}
	_, _, err := Create(db, &txn)
	require.NoError(t, err)

	// Onay beklerken iki taraf için de 0 katkı
	balance, err := ComputeBalance(db, 1, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
	balance, err = ComputeBalance(db, 2, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)

	// Onaydan sonra kaynakta -amount, hedefte +amount
	require.NoError(t, db.Model(&models.Transaction{}).Where("id = ?", txn.ID).Update("approval_status", completed).Error)

	balance, err = ComputeBalance(db, 1, "TRY")
	require.NoError(t, err)
	assert.Equal(t, -200.0, balance)
	balance, err = ComputeBalance(db, 2, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 200.0, balance)
}

func TestComputeBalance_SelfTransferNetsToZero(t *testing.T) {
	db := newTestDB(t)

	// Gönderen ve alan aynı aktörse katkı +amount değil 0 olmalı
	_, _, err := Create(db, &models.Transaction{Reference: "a", Kind: models.KindOutgoing, Amount: 100, Currency: "TRY", SourceID: uintPtr(1), DestinationID: uintPtr(1)})
	require.NoError(t, err)

	balance, err := ComputeBalance(db, 1, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)

	// Kendine transfer diğer hareketlerin toplamını da bozmamalı
	_, _, err = Create(db, &models.Transaction{Reference: "b", Kind: models.KindIncome, Amount: 250, Currency: "TRY", SourceID: uintPtr(2), DestinationID: uintPtr(1)})
	require.NoError(t, err)

	balance, err = ComputeBalance(db, 1, "TRY")
	require.NoError(t, err)
	assert.Equal(t, 250.0, balance)
}

func TestComputeBalance_NoTransactions(t *testing.T) {
	db := newTestDB(t)

	balance, err := ComputeBalance(db, 1, "TRY")

	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}
