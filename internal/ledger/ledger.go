// Package ledger, para hareketi defteridir; bakiyelerin tek doğruluk
// kaynağıdır. Kaynağın create-or-update davranışı burada ikiye ayrıldı:
// Create referans üzerinden idempotenttir, Update ayrı bir operasyondur.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/models"

	"gorm.io/gorm"
)

// Create: yeni bir para hareketi ekler. Aynı Reference ile tekrar
// çağrılırsa mevcut kayıt döner ve created false olur; yeni kayıt
// oluşturulmaz.
func Create(db *gorm.DB, txn *models.Transaction) (out *models.Transaction, created bool, err error) {
	if strings.TrimSpace(txn.Reference) == "" {
		return nil, false, fmt.Errorf("%w: reference zorunlu", apperr.ErrValidation)
	}
	if txn.Kind != models.KindIncome && txn.Kind != models.KindOutgoing {
		return nil, false, fmt.Errorf("%w: kind 'income' veya 'outgoing' olmalı", apperr.ErrValidation)
	}
	if txn.Amount < 0 {
		return nil, false, fmt.Errorf("%w: amount negatif olamaz", apperr.ErrValidation)
	}
	if len(txn.Currency) != 3 {
		return nil, false, fmt.Errorf("%w: currency 3 harfli kod olmalı", apperr.ErrValidation)
	}

	var existing models.Transaction
	lookupErr := db.Where("reference = ?", txn.Reference).First(&existing).Error
	if lookupErr == nil {
		return &existing, false, nil
	}
	if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return nil, false, lookupErr
	}

	if err := db.Create(txn).Error; err != nil {
		return nil, false, err
	}
	return txn, true, nil
}

type UpdateFields struct {
	Amount      *float64
	Description *string
	Currency    *string
}

// Update: yönetici düzenlemesi. Onay durumuna dokunmaz; o alanı yalnızca
// finance workflow yazar.
func Update(db *gorm.DB, id uint, fields UpdateFields) (*models.Transaction, error) {
	var txn models.Transaction
	if err := db.First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: işlem bulunamadı", apperr.ErrNotFound)
		}
		return nil, err
	}

	if fields.Amount != nil {
		if *fields.Amount < 0 {
			return nil, fmt.Errorf("%w: amount negatif olamaz", apperr.ErrValidation)
		}
		txn.Amount = *fields.Amount
	}
	if fields.Description != nil {
		txn.Description = strings.TrimSpace(*fields.Description)
	}
	if fields.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*fields.Currency))
		if len(cur) != 3 {
			return nil, fmt.Errorf("%w: currency 3 harfli kod olmalı", apperr.ErrValidation)
		}
		txn.Currency = cur
	}

	if err := db.Save(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// ComputeBalance: aktörün verilen para birimindeki bakiyesi. Aktör alan
// taraftaysa +amount, gönderen taraftaysa -amount sayılır; iki taraf da
// aktörse katkı sıfırlanır. Onayı bekleyen işlemler (ApprovalStatus dolu
// ve Completed değil) hesaba katılmaz.
func ComputeBalance(db *gorm.DB, actorID uint, currency string) (float64, error) {
	var balance float64
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN destination_id = ? THEN amount ELSE 0 END), 0) - COALESCE(SUM(CASE WHEN source_id = ? THEN amount ELSE 0 END), 0)", actorID, actorID).
		Where("currency = ?", currency).
		Where("destination_id = ? OR source_id = ?", actorID, actorID).
		Where("approval_status IS NULL OR approval_status = ?", models.StatusCompleted).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}
