package models

import "time"

// StockItem: Satıcının satışa açtığı ürün stoğu.
// Quantity, bekleyen taleplerin rezervasyonları düşülmüş satılabilir miktardır.
type StockItem struct {
	ID        uint    `gorm:"primaryKey"`
	OwnerID   uint    `gorm:"index;not null"` // satıcı
	Owner     User    `gorm:"foreignKey:OwnerID"`
	Name      string  `gorm:"size:200;not null"`
	Quantity  int     `gorm:"not null"` // satılabilir miktar
	UnitCost  float64 `gorm:"not null"` // birim fiyat
	Currency  string  `gorm:"size:3;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
