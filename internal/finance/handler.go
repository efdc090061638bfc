package finance

import (
	"strings"
	"time"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/auth"
	"pazaryeri-backend/internal/database"
	"pazaryeri-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateTransactionRequest struct {
	Kind          string  `json:"kind"` // "income" veya "outgoing"
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	SourceID      *uint   `json:"source_id"`      // outgoing'de boşsa aktör alınır
	DestinationID *uint   `json:"destination_id"` // transfer alıcısı
	ItemID        *uint   `json:"item_id"`
	Description   string  `json:"description"`
	Reference     string  `json:"reference"` // idempotency anahtarı; boşsa üretilir
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
}

type FinanceRequestResponse struct {
	ID            uint                 `json:"id"`
	TransactionID uint                 `json:"transaction_id"`
	SourceID      *uint                `json:"source_id"`
	DestinationID uint                 `json:"destination_id"`
	Status        models.RequestStatus `json:"status"`
	CreatedAt     string               `json:"created_at"`
	UpdatedAt     string               `json:"updated_at"`
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
	}
}

func toFinanceRequestResponse(fr *models.FinanceRequest) FinanceRequestResponse {
	return FinanceRequestResponse{
		ID:            fr.ID,
		TransactionID: fr.TransactionID,
		SourceID:      fr.SourceID,
		DestinationID: fr.DestinationID,
		Status:        fr.Status,
		CreatedAt:     fr.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     fr.UpdatedAt.Format(time.RFC3339),
	}
}

// POST /api/transactions
// Giden ve alıcısı belli bir işlem, onay talebini de doğurur.
func CreateTransactionHandler(wf *Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount 0'dan büyük olmalı")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		sourceID := body.SourceID
		if sourceID == nil && body.Kind == string(models.KindOutgoing) {
			sourceID = &actor.UserID
		}

		reference := strings.TrimSpace(body.Reference)
		if reference == "" {
			reference = wf.NewID()
		}

		txn := models.Transaction{
			Reference:     reference,
			Kind:          models.TransactionKind(body.Kind),
			Amount:        body.Amount,
			Currency:      strings.ToUpper(strings.TrimSpace(body.Currency)),
			SourceID:      sourceID,
			DestinationID: body.DestinationID,
			ItemID:        body.ItemID,
			Description:   strings.TrimSpace(body.Description),
		}

		created, fr, err := wf.CreateTransaction(actor, user.Name, &txn)
		if err != nil {
			return apperr.ToFiber(err)
		}

		resp := fiber.Map{"transaction": toTransactionResponse(created)}
		if fr != nil {
			resp["finance_request"] = toFinanceRequestResponse(fr)
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/finance-requests/related
// Aktörün gönderen ya da alıcı tarafında olduğu onay talepleri.
func ListRelatedFinanceRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.FinanceRequest{})
		if !actor.IsAdmin() {
			dbq = dbq.Where("destination_id = ? OR source_id = ?", actor.UserID, actor.UserID)
		}

		var requests []models.FinanceRequest
		if err := dbq.Order("id desc").Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Onay talepleri listelenemedi")
		}

		resp := make([]FinanceRequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toFinanceRequestResponse(&requests[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/finance-requests/:id/confirm
func ConfirmFinanceRequestHandler(wf *Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		fr, err := wf.Confirm(actor, user.Name, uint(id))
		if err != nil {
			return apperr.ToFiber(err)
		}

		return c.JSON(toFinanceRequestResponse(fr))
	}
}

// PUT /api/finance-requests/:id/cancel
// İptal, bağlı işlemi de siler.
func CancelFinanceRequestHandler(wf *Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if err := wf.Cancel(actor, user.Name, uint(id)); err != nil {
			return apperr.ToFiber(err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
