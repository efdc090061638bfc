package ledger

import (
	"fmt"
	"log"
	"strings"
	"time"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/audit"
	"pazaryeri-backend/internal/auth"
	"pazaryeri-backend/internal/authz"
	"pazaryeri-backend/internal/database"
	"pazaryeri-backend/internal/models"
	"pazaryeri-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
)

type UpdateTransactionRequest struct {
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	Currency    *string  `json:"currency"`
}

type TransactionResponse struct {
	ID             uint                  `json:"id"`
	Reference      string                `json:"reference"`
	Kind           string                `json:"kind"`
	Amount         float64               `json:"amount"`
	Currency       string                `json:"currency"`
	SourceID       *uint                 `json:"source_id"`
	DestinationID  *uint                 `json:"destination_id"`
	ItemID         *uint                 `json:"item_id"`
	Description    string                `json:"description"`
	ApprovalStatus *models.RequestStatus `json:"approval_status"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		Reference:      t.Reference,
		Kind:           string(t.Kind),
		Amount:         t.Amount,
		Currency:       t.Currency,
		SourceID:       t.SourceID,
		DestinationID:  t.DestinationID,
		ItemID:         t.ItemID,
		Description:    t.Description,
		ApprovalStatus: t.ApprovalStatus,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.Format(time.RFC3339),
	}
}

// GET /api/transactions
// Aktörün taraf olduğu işlemler; admin tümünü görür.
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Transaction{})
		if !actor.IsAdmin() {
			dbq = dbq.Where("destination_id = ? OR source_id = ?", actor.UserID, actor.UserID)
		}

		var transactions []models.Transaction
		if err := dbq.Order("id desc").Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler listelenemedi")
		}

		resp := make([]TransactionResponse, 0, len(transactions))
		for i := range transactions {
			resp = append(resp, toTransactionResponse(&transactions[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/transactions/:id
// Yönetici düzenlemesi.
func UpdateTransactionHandler(bus *notify.Bus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceTransactions, Action: authz.ActionWrite}) {
			return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
		}

		var body UpdateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		txn, err := Update(database.DB, uint(id), UpdateFields{
			Amount:      body.Amount,
			Description: body.Description,
			Currency:    body.Currency,
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		user, err := auth.CurrentUser(c)
		if err == nil {
			if logErr := audit.WriteLog(database.DB, audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "transaction",
				EntityID:    txn.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("İşlem #%d güncellendi", txn.ID),
				After:       txn,
			}); logErr != nil {
				log.Printf("Audit log yazılamadı: %v", logErr)
			}
		}
		bus.Publish(notify.Event{Resource: "transaction", ID: txn.ID, Action: "update"})

		return c.JSON(toTransactionResponse(txn))
	}
}

// GET /api/balance?currency=TRY
func BalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		currency := strings.ToUpper(strings.TrimSpace(c.Query("currency")))
		if len(currency) != 3 {
			return fiber.NewError(fiber.StatusBadRequest, "currency 3 harfli kod olmalı (ör: TRY)")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}

		balance, err := ComputeBalance(database.DB, actor.UserID, currency)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hesaplanamadı")
		}

		return c.JSON(fiber.Map{
			"user_id":  actor.UserID,
			"currency": currency,
			"balance":  balance,
		})
	}
}
