package request

import (
	"time"

	"pazaryeri-backend/internal/apperr"
	"pazaryeri-backend/internal/auth"
	"pazaryeri-backend/internal/authz"
	"pazaryeri-backend/internal/database"
	"pazaryeri-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateRequest struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

type RequestResponse struct {
	ID        uint                 `json:"id"`
	ItemID    uint                 `json:"item_id"`
	ItemName  string               `json:"item_name,omitempty"`
	BuyerID   uint                 `json:"buyer_id"`
	BuyerName string               `json:"buyer_name"`
	Quantity  int                  `json:"quantity"`
	Status    models.RequestStatus `json:"status"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

func toRequestResponse(r *models.PurchaseRequest) RequestResponse {
	return RequestResponse{
		ID:        r.ID,
		ItemID:    r.ItemID,
		ItemName:  r.Item.Name,
		BuyerID:   r.BuyerID,
		BuyerName: r.BuyerName,
		Quantity:  r.Quantity,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}

// POST /api/requests
func CreateRequestHandler(wf *Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		req, err := wf.Create(actor, user.Name, body.ItemID, body.Quantity)
		if err != nil {
			return apperr.ToFiber(err)
		}

		return c.Status(fiber.StatusCreated).JSON(toRequestResponse(req))
	}
}

// GET /api/requests/related
// Aktörün alıcı ya da satıcı tarafında olduğu talepler.
func ListRelatedRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}

		var requests []models.PurchaseRequest
		if err := database.DB.
			Joins("JOIN stock_items ON stock_items.id = purchase_requests.item_id").
			Where("purchase_requests.buyer_id = ? OR stock_items.owner_id = ?", actor.UserID, actor.UserID).
			Preload("Item").
			Order("purchase_requests.id desc").
			Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talepler listelenemedi")
		}

		resp := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toRequestResponse(&requests[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/my/requests
// Aktörün alıcı tarafında olduğu talepler.
func ListMyRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}

		var requests []models.PurchaseRequest
		if err := database.DB.
			Where("buyer_id = ?", actor.UserID).
			Preload("Item").
			Order("id desc").
			Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talepler listelenemedi")
		}

		resp := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toRequestResponse(&requests[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/requests
// Tüm taleplerin listesi; requests kaynağında okuma yetkisi ister.
func ListAllRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceRequests, Action: authz.ActionRead}) {
			return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
		}

		var requests []models.PurchaseRequest
		if err := database.DB.
			Preload("Item").
			Order("id desc").
			Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talepler listelenemedi")
		}

		resp := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toRequestResponse(&requests[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/requests/:id/confirm
func ConfirmRequestHandler(wf *Workflow) fiber.Handler {
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

		req, _, err := wf.Confirm(actor, user.Name, uint(id))
		if err != nil {
			return apperr.ToFiber(err)
		}

		return c.JSON(toRequestResponse(req))
	}
}

// PUT /api/requests/:id/cancel
func CancelRequestHandler(wf *Workflow) fiber.Handler {
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

		req, err := wf.Cancel(actor, user.Name, uint(id))
		if err != nil {
			return apperr.ToFiber(err)
		}

		return c.JSON(toRequestResponse(req))
	}
}

// DELETE /api/requests/:id
func DeleteRequestHandler(wf *Workflow) fiber.Handler {
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

		if err := wf.Delete(actor, user.Name, uint(id)); err != nil {
			return apperr.ToFiber(err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
