package models

import "time"

// FinanceRequest: Giden bir transferin alıcı onayını bekleyen talebi.
// Bağlı olduğu Transaction ile birlikte oluşturulur; iptal edilirse
// Transaction ile birlikte silinir (1:1 ilişki).
type FinanceRequest struct {
	ID            uint          `gorm:"primaryKey"`
	TransactionID uint          `gorm:"uniqueIndex;not null"`
	Transaction   Transaction   `gorm:"foreignKey:TransactionID"`
	SourceID      *uint         `gorm:"index"`
	DestinationID uint          `gorm:"index;not null"` // onay verecek taraf
	Status        RequestStatus `gorm:"size:20;not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
