package models

import "time"

type TransactionKind string

const (
	KindIncome   TransactionKind = "income"   // satış geliri
	KindOutgoing TransactionKind = "outgoing" // giden transfer
)

// Transaction: Para hareketi kaydı.
// ApprovalStatus dolu ve Completed değilse işlem henüz gerçekleşmemiş sayılır
// ve bakiye hesabına katılmaz. Bu alanı yalnızca finance workflow yazar.
type Transaction struct {
	ID             uint            `gorm:"primaryKey"`
	Reference      string          `gorm:"size:36;uniqueIndex;not null"` // idempotency anahtarı
	Kind           TransactionKind `gorm:"size:20;not null;index"`
	Amount         float64         `gorm:"not null"`
	Currency       string          `gorm:"size:3;not null;index"`
	SourceID       *uint           `gorm:"index"` // gönderen (alıcı taraf için borç)
	DestinationID  *uint           `gorm:"index"` // alan
	ItemID         *uint           `gorm:"index"` // ilgili ürün (opsiyonel)
	Description    string          `gorm:"size:255"`
	ApprovalStatus *RequestStatus  `gorm:"size:20;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Realized: İşlemin bakiyeye katılıp katılmayacağı.
func (t *Transaction) Realized() bool {
	return t.ApprovalStatus == nil || *t.ApprovalStatus == StatusCompleted
}
