package models

import "time"

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal: Completed veya Cancelled durumundan başka geçiş yoktur (silme hariç).
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PurchaseRequest: Alıcının bir ürün için oluşturduğu satın alma talebi.
// Pending durumdaki talep, Quantity kadar stoğu rezerve etmiş demektir;
// Quantity oluşturulurken sabitlenir ve sonradan değişmez.
type PurchaseRequest struct {
	ID        uint          `gorm:"primaryKey"`
	ItemID    uint          `gorm:"index;not null"`
	Item      StockItem     `gorm:"foreignKey:ItemID"`
	BuyerID   uint          `gorm:"index;not null"`
	BuyerName string        `gorm:"size:100"` // denormalize
	Quantity  int           `gorm:"not null"` // rezerve edilen miktar
	Status    RequestStatus `gorm:"size:20;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
