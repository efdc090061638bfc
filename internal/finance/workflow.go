// Package finance, giden transferleri alıcı onayının arkasına alan durum
// makinesidir. Onay talebi Pending iken bağlı Transaction gerçekleşmemiş
// sayılır ve bakiyeye katılmaz.
package finance

import (
	"errors"
	"fmt"
	"log"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/audit"
	"pazaryeri-backend/internal/authz"
	"pazaryeri-backend/internal/idgen"
	"pazaryeri-backend/internal/ledger"
	"pazaryeri-backend/internal/models"
	"pazaryeri-backend/internal/notify"

	"gorm.io/gorm"
)

type Workflow struct {
	DB    *gorm.DB
	Bus   *notify.Bus
	NewID idgen.Generator
}

func NewWorkflow(db *gorm.DB, bus *notify.Bus) *Workflow {
	return &Workflow{DB: db, Bus: bus, NewID: idgen.UUID}
}

// Spawn: giden ve alıcısı belli bir işlem için Pending onay talebi açar,
// işlemin onay durumunu aynı transaction içinde Pending'e çeker. Diğer
// işlemler için no-op'tur.
func Spawn(tx *gorm.DB, txn *models.Transaction) (*models.FinanceRequest, error) {
	if txn.Kind != models.KindOutgoing || txn.DestinationID == nil {
		return nil, nil
	}

	fr := models.FinanceRequest{
		TransactionID: txn.ID,
		SourceID:      txn.SourceID,
		DestinationID: *txn.DestinationID,
		Status:        models.StatusPending,
	}
	if err := tx.Create(&fr).Error; err != nil {
		return nil, err
	}

	status := models.StatusPending
	if err := tx.Model(&models.Transaction{}).
		Where("id = ?", txn.ID).
		Update("approval_status", status).Error; err != nil {
		return nil, err
	}
	txn.ApprovalStatus = &status

	return &fr, nil
}

// CreateTransaction: işlemi kaydeder; gerekiyorsa onay talebini aynı
// transaction sınırı içinde açar. Reference üzerinden idempotenttir:
// aynı referansla ikinci çağrı mevcut kaydı döner, ikinci bir onay
// talebi açmaz.
func (w *Workflow) CreateTransaction(actor authz.Identity, actorName string, txn *models.Transaction) (*models.Transaction, *models.FinanceRequest, error) {
	if txn.Kind == models.KindIncome && !actor.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: gelir kaydını yalnızca yönetici oluşturabilir", apperr.ErrForbidden)
	}
	if txn.Kind == models.KindOutgoing && !actor.IsAdmin() {
		if txn.SourceID == nil || *txn.SourceID != actor.UserID {
			return nil, nil, fmt.Errorf("%w: transferi yalnızca gönderen başlatabilir", apperr.ErrForbidden)
		}
	}

	var out *models.Transaction
	var fr *models.FinanceRequest
	var created bool
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		out, created, err = ledger.Create(tx, txn)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		fr, err = Spawn(tx, out)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if created {
		if logErr := audit.WriteLog(w.DB, audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actorName,
			EntityType:  "transaction",
			EntityID:    out.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("İşlem oluşturuldu: %.2f %s (%s)", out.Amount, out.Currency, out.Kind),
			After:       out,
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}
		w.Bus.Publish(notify.Event{Resource: "transaction", ID: out.ID, Action: "create"})
		if fr != nil {
			w.Bus.Publish(notify.Event{Resource: "finance_request", ID: fr.ID, Action: "create"})
		}
	}

	return out, fr, nil
}

// Confirm: onay talebini Completed'a çeker ve aynı durumu işlemin onay
// alanına yansıtır; işlem ancak bu yazmadan sonra bakiyeye katılır.
// Zaten Completed ise başarıyla no-op döner.
func (w *Workflow) Confirm(actor authz.Identity, actorName string, requestID uint) (*models.FinanceRequest, error) {
	var out *models.FinanceRequest
	confirmed := false
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		var fr models.FinanceRequest
		if err := tx.First(&fr, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: onay talebi bulunamadı", apperr.ErrNotFound)
			}
			return err
		}

		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceFinanceRequests, Action: authz.ActionWrite, OwnerID: &fr.DestinationID}) {
			return fmt.Errorf("%w: onayı yalnızca alıcı veya yönetici verebilir", apperr.ErrForbidden)
		}

		// Aynı geçişin tekrarı hata değildir
		if fr.Status == models.StatusCompleted {
			out = &fr
			return nil
		}

		fr.Status = models.StatusCompleted
		if err := tx.Save(&fr).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).
			Where("id = ?", fr.TransactionID).
			Update("approval_status", models.StatusCompleted).Error; err != nil {
			return err
		}

		out = &fr
		confirmed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		if logErr := audit.WriteLog(w.DB, audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actorName,
			EntityType:  "finance_request",
			EntityID:    out.ID,
			Action:      models.AuditActionConfirm,
			Description: fmt.Sprintf("Onay talebi #%d onaylandı (işlem #%d)", out.ID, out.TransactionID),
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}
		w.Bus.Publish(notify.Event{Resource: "finance_request", ID: out.ID, Action: "confirm"})
	}

	return out, nil
}

// Cancel: satın alma iptalinin aksine etkiyi geri almaz; onaylanmamış bir
// transfer hiç gerçekleşmemiş sayılır ve Transaction, FinanceRequest ile
// birlikte tek transaction'da silinir.
func (w *Workflow) Cancel(actor authz.Identity, actorName string, requestID uint) error {
	var frID, txnID uint
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		var fr models.FinanceRequest
		if err := tx.First(&fr, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: onay talebi bulunamadı", apperr.ErrNotFound)
			}
			return err
		}

		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceFinanceRequests, Action: authz.ActionWrite, OwnerID: &fr.DestinationID}) {
			return fmt.Errorf("%w: iptali yalnızca alıcı veya yönetici yapabilir", apperr.ErrForbidden)
		}

		if fr.Status == models.StatusCompleted {
			return fmt.Errorf("%w: tamamlanmış onay talebi iptal edilemez", apperr.ErrConflict)
		}

		if err := tx.Delete(&models.Transaction{}, "id = ?", fr.TransactionID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&fr).Error; err != nil {
			return err
		}

		frID, txnID = fr.ID, fr.TransactionID
		return nil
	})
	if err != nil {
		return err
	}

	if logErr := audit.WriteLog(w.DB, audit.LogOptions{
		UserID:      actor.UserID,
		UserName:    actorName,
		EntityType:  "finance_request",
		EntityID:    frID,
		Action:      models.AuditActionCancel,
		Description: fmt.Sprintf("Onay talebi #%d iptal edildi, işlem #%d silindi", frID, txnID),
	}); logErr != nil {
		log.Printf("Audit log yazılamadı: %v", logErr)
	}
	w.Bus.Publish(notify.Event{Resource: "finance_request", ID: frID, Action: "cancel"})

	return nil
}
