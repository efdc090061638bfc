// Package request, satın alma taleplerinin durum makinesidir:
// Pending -> {Completed, Cancelled}. Terminal durumdan tek çıkış silmedir.
// Talep oluşturma stoğu rezerve eder; onay, defterde gelir kaydı açar;
// iptal, rezerve edilen miktarı tam olarak bir kez geri salar.
package request

import (
	"errors"
	"fmt"
	"log"
	"math"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/audit"
	"pazaryeri-backend/internal/authz"
	"pazaryeri-backend/internal/idgen"
	"pazaryeri-backend/internal/ledger"
	"pazaryeri-backend/internal/models"
	"pazaryeri-backend/internal/notify"
	"pazaryeri-backend/internal/stock"

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

// Create: stoğu rezerve eder ve Pending talebi aynı transaction içinde
// kalıcılaştırır. Talep yazılamazsa rollback rezervasyonu da geri alır;
// stok hiçbir hata yolunda sızmaz. Alıcı kendi ürününe talep açamaz.
func (w *Workflow) Create(actor authz.Identity, actorName string, itemID uint, qty int) (*models.PurchaseRequest, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: miktar 0'dan büyük olmalı", apperr.ErrValidation)
	}

	var req *models.PurchaseRequest
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: ürün bulunamadı", apperr.ErrNotFound)
			}
			return err
		}

		if item.OwnerID == actor.UserID {
			return fmt.Errorf("%w: kendi ürününüz için talep oluşturamazsınız", apperr.ErrValidation)
		}

		if _, err := stock.Reserve(tx, itemID, qty); err != nil {
			return err
		}

		r := models.PurchaseRequest{
			ItemID:    itemID,
			BuyerID:   actor.UserID,
			BuyerName: actorName,
			Quantity:  qty,
			Status:    models.StatusPending,
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}

		req = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.writeAudit(actor, actorName, req.ID, models.AuditActionCreate,
		fmt.Sprintf("Talep oluşturuldu: ürün #%d, %d adet", req.ItemID, req.Quantity), nil, req)
	w.Bus.Publish(notify.Event{Resource: "purchase_request", ID: req.ID, Action: "create"})

	return req, nil
}

// Confirm: satıcı (ürün sahibi) veya yönetici onaylar. Gelir kaydı ve
// durum yazması tek transaction'dadır; ikisinden biri başarısız olursa
// talep terminal olmaz. Zaten Completed ise başarıyla no-op döner ve
// ikinci bir gelir kaydı açılmaz.
func (w *Workflow) Confirm(actor authz.Identity, actorName string, requestID uint) (*models.PurchaseRequest, *models.Transaction, error) {
	var req *models.PurchaseRequest
	var txn *models.Transaction
	confirmed := false
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		var r models.PurchaseRequest
		if err := tx.First(&r, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: talep bulunamadı", apperr.ErrNotFound)
			}
			return err
		}

		var item models.StockItem
		if err := tx.First(&item, "id = ?", r.ItemID).Error; err != nil {
			return fmt.Errorf("talebin ürünü yüklenemedi: %w", err)
		}

		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceRequests, Action: authz.ActionWrite, OwnerID: &item.OwnerID}) {
			return fmt.Errorf("%w: talebi yalnızca satıcı veya yönetici onaylayabilir", apperr.ErrForbidden)
		}

		// Aynı geçişin tekrarı hata değildir
		if r.Status == models.StatusCompleted {
			req = &r
			return nil
		}
		if r.Status == models.StatusCancelled {
			return fmt.Errorf("%w: iptal edilmiş talep onaylanamaz", apperr.ErrConflict)
		}

		amount := math.Ceil(item.UnitCost * float64(r.Quantity))
		t := models.Transaction{
			Reference:     w.NewID(),
			Kind:          models.KindIncome,
			Amount:        amount,
			Currency:      item.Currency,
			SourceID:      &r.BuyerID,
			DestinationID: &item.OwnerID,
			ItemID:        &item.ID,
			Description:   fmt.Sprintf("Satın alma talebi #%d: %s x%d", r.ID, item.Name, r.Quantity),
		}
		out, _, err := ledger.Create(tx, &t)
		if err != nil {
			return err
		}

		r.Status = models.StatusCompleted
		if err := tx.Save(&r).Error; err != nil {
			return err
		}

		req = &r
		txn = out
		confirmed = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if confirmed {
		w.writeAudit(actor, actorName, req.ID, models.AuditActionConfirm,
			fmt.Sprintf("Talep #%d onaylandı, işlem #%d oluşturuldu", req.ID, txn.ID), nil, req)
		w.Bus.Publish(notify.Event{Resource: "purchase_request", ID: req.ID, Action: "confirm"})
	}

	return req, txn, nil
}

// Cancel: alıcı veya yönetici iptal eder. Rezerve edilen miktar tam
// olarak bir kez geri salınır; salım ve durum yazması tek
// transaction'dadır. Zaten Cancelled ise başarıyla no-op döner.
func (w *Workflow) Cancel(actor authz.Identity, actorName string, requestID uint) (*models.PurchaseRequest, error) {
	var req *models.PurchaseRequest
	cancelled := false
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		var r models.PurchaseRequest
		if err := tx.First(&r, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: talep bulunamadı", apperr.ErrNotFound)
			}
			return err
		}

		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceRequests, Action: authz.ActionWrite, OwnerID: &r.BuyerID}) {
			return fmt.Errorf("%w: talebi yalnızca alıcı veya yönetici iptal edebilir", apperr.ErrForbidden)
		}

		// Aynı geçişin tekrarı hata değildir
		if r.Status == models.StatusCancelled {
			req = &r
			return nil
		}
		if r.Status == models.StatusCompleted {
			return fmt.Errorf("%w: tamamlanmış talep iptal edilemez", apperr.ErrConflict)
		}

		if err := stock.Release(tx, r.ItemID, r.Quantity); err != nil {
			return err
		}

		r.Status = models.StatusCancelled
		if err := tx.Save(&r).Error; err != nil {
			return err
		}

		req = &r
		cancelled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		w.writeAudit(actor, actorName, req.ID, models.AuditActionCancel,
			fmt.Sprintf("Talep #%d iptal edildi, %d adet stok geri salındı", req.ID, req.Quantity), nil, req)
		w.Bus.Publish(notify.Event{Resource: "purchase_request", ID: req.ID, Action: "cancel"})
	}

	return req, nil
}

// Delete: yalnızca terminal durumdaki talep silinebilir. Pending bir
// talebi silmek rezervasyonu sızdırır; iptal etmeden silme her aktör
// için reddedilir.
func (w *Workflow) Delete(actor authz.Identity, actorName string, requestID uint) error {
	var req models.PurchaseRequest
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: talep bulunamadı", apperr.ErrNotFound)
			}
			return err
		}

		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceRequests, Action: authz.ActionWrite, OwnerID: &req.BuyerID}) {
			return fmt.Errorf("%w: talebi yalnızca alıcı veya yönetici silebilir", apperr.ErrForbidden)
		}

		if !req.Status.Terminal() {
			return fmt.Errorf("%w: terminal olmayan talep silinemez, önce iptal edin", apperr.ErrConflict)
		}

		return tx.Delete(&req).Error
	})
	if err != nil {
		return err
	}

	w.writeAudit(actor, actorName, req.ID, models.AuditActionDelete,
		fmt.Sprintf("Talep #%d silindi", req.ID), &req, nil)
	w.Bus.Publish(notify.Event{Resource: "purchase_request", ID: req.ID, Action: "delete"})

	return nil
}

// Audit yazımı en-iyi-çabadır; başarısızlığı tamamlanmış geçişi geri almaz.
func (w *Workflow) writeAudit(actor authz.Identity, actorName string, id uint, action models.AuditAction, desc string, before, after any) {
	if err := audit.WriteLog(w.DB, audit.LogOptions{
		UserID:      actor.UserID,
		UserName:    actorName,
		EntityType:  "purchase_request",
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}); err != nil {
		log.Printf("Audit log yazılamadı: %v", err)
	}
}
