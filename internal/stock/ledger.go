// Package stock, ürün stoğunun rezervasyon/salım defteridir.
// Rezervasyon tek bir koşullu UPDATE ile yapılır; aynı ürüne yarışan iki
// rezervasyonun doğruluğu satır düzeyindeki bu koşullu yazmaya dayanır,
// süreç içi kilide değil.
package stock

import (
	"errors"
	"fmt"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/models"

	"gorm.io/gorm"
)

// Reserve: available >= qty kontrolünü ve düşümü tek koşullu yazmada yapar,
// yeni satılabilir miktarı döner. Okuma + yazma olarak ayrılamaz; arada
// başka bir rezervasyon girerse fazla satış olur.
func Reserve(db *gorm.DB, itemID uint, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%w: miktar 0'dan büyük olmalı", apperr.ErrValidation)
	}

	res := db.Model(&models.StockItem{}).
		Where("id = ? AND quantity >= ?", itemID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Koşullu yazma tutmadı: ürün yok ya da stok yetersiz
		var item models.StockItem
		if err := db.Select("id").First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, fmt.Errorf("%w: ürün bulunamadı", apperr.ErrNotFound)
			}
			return 0, err
		}
		return 0, apperr.ErrInsufficientStock
	}

	var item models.StockItem
	if err := db.First(&item, "id = ?", itemID).Error; err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// Release: miktarı koşulsuz geri ekler. "Zaten salındı" bilgisini bu
// primitif tutmaz; idempotensi çağıranın sorumluluğudur.
func Release(db *gorm.DB, itemID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: miktar 0'dan büyük olmalı", apperr.ErrValidation)
	}

	res := db.Model(&models.StockItem{}).
		Where("id = ?", itemID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ürün bulunamadı", apperr.ErrNotFound)
	}
	return nil
}
