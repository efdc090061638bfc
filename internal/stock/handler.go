package stock

import (
	"fmt"
	"log"
	"strings"
	"time"

	"pazaryeri-backend/internal/audit"
	"pazaryeri-backend/internal/auth"
	"pazaryeri-backend/internal/authz"
	"pazaryeri-backend/internal/database"
	"pazaryeri-backend/internal/models"
	"pazaryeri-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateItemRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Currency string  `json:"currency"`
}

type UpdateItemRequest struct {
	Name     *string  `json:"name"`
	Quantity *int     `json:"quantity"`
	UnitCost *float64 `json:"unit_cost"`
	Currency *string  `json:"currency"`
}

type ItemResponse struct {
	ID        uint    `json:"id"`
	OwnerID   uint    `json:"owner_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toItemResponse(item *models.StockItem) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		OwnerID:   item.OwnerID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitCost:  item.UnitCost,
		Currency:  item.Currency,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339),
	}
}

// POST /api/items
func CreateItemHandler(bus *notify.Bus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		// Validasyon
		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity negatif olamaz")
		}
		if body.UnitCost <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "unit_cost 0'dan büyük olmalı")
		}
		body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
		if len(body.Currency) != 3 {
			return fiber.NewError(fiber.StatusBadRequest, "currency 3 harfli kod olmalı (ör: TRY)")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		item := models.StockItem{
			OwnerID:  user.ID,
			Name:     strings.TrimSpace(body.Name),
			Quantity: body.Quantity,
			UnitCost: body.UnitCost,
			Currency: body.Currency,
		}

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün kaydedilemedi")
		}

		if logErr := audit.WriteLog(database.DB, audit.LogOptions{
			UserID:      user.ID,
			UserName:    user.Name,
			EntityType:  "stock_item",
			EntityID:    item.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Ürün eklendi: %s (%d adet)", item.Name, item.Quantity),
			After:       toItemResponse(&item),
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}
		bus.Publish(notify.Event{Resource: "stock_item", ID: item.ID, Action: "create"})

		return c.Status(fiber.StatusCreated).JSON(toItemResponse(&item))
	}
}

// GET /api/items?owner_id=...
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.StockItem{})

		if ownerID := c.QueryInt("owner_id"); ownerID > 0 {
			dbq = dbq.Where("owner_id = ?", ownerID)
		}

		var items []models.StockItem
		if err := dbq.Order("id desc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		resp := make([]ItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toItemResponse(&items[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/items/:id
func GetItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		return c.JSON(toItemResponse(&item))
	}
}

// PUT /api/items/:id
func UpdateItemHandler(bus *notify.Bus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceItems, Action: authz.ActionWrite, OwnerID: &item.OwnerID}) {
			return fiber.NewError(fiber.StatusForbidden, "Bu ürüne erişim yetkiniz yok")
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := toItemResponse(&item)
		updated := false

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			item.Name = name
			updated = true
		}
		if body.Quantity != nil {
			if *body.Quantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity negatif olamaz")
			}
			item.Quantity = *body.Quantity
			updated = true
		}
		if body.UnitCost != nil {
			if *body.UnitCost <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_cost 0'dan büyük olmalı")
			}
			item.UnitCost = *body.UnitCost
			updated = true
		}
		if body.Currency != nil {
			cur := strings.ToUpper(strings.TrimSpace(*body.Currency))
			if len(cur) != 3 {
				return fiber.NewError(fiber.StatusBadRequest, "currency 3 harfli kod olmalı (ör: TRY)")
			}
			item.Currency = cur
			updated = true
		}

		if !updated {
			return c.JSON(toItemResponse(&item))
		}

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		user, err := auth.CurrentUser(c)
		if err == nil {
			if logErr := audit.WriteLog(database.DB, audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "stock_item",
				EntityID:    item.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ürün güncellendi: %s", item.Name),
				Before:      before,
				After:       toItemResponse(&item),
			}); logErr != nil {
				log.Printf("Audit log yazılamadı: %v", logErr)
			}
		}
		bus.Publish(notify.Event{Resource: "stock_item", ID: item.ID, Action: "update"})

		return c.JSON(toItemResponse(&item))
	}
}

// DELETE /api/items/:id
// Terminal olmayan bir talebin referans verdiği ürün silinemez; silinirse
// rezervasyonun geri döneceği satır kaybolur.
func DeleteItemHandler(bus *notify.Bus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		actor, err := auth.Identity(c)
		if err != nil {
			return err
		}
		if !authz.Allow(actor, authz.Request{Resource: authz.ResourceItems, Action: authz.ActionWrite, OwnerID: &item.OwnerID}) {
			return fiber.NewError(fiber.StatusForbidden, "Bu ürüne erişim yetkiniz yok")
		}

		var pendingCount int64
		if err := database.DB.Model(&models.PurchaseRequest{}).
			Where("item_id = ? AND status = ?", item.ID, models.StatusPending).
			Count(&pendingCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}
		if pendingCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bekleyen talebi olan ürün silinemez")
		}

		before := toItemResponse(&item)

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		user, err := auth.CurrentUser(c)
		if err == nil {
			if logErr := audit.WriteLog(database.DB, audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "stock_item",
				EntityID:    item.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %s", item.Name),
				Before:      before,
			}); logErr != nil {
				log.Printf("Audit log yazılamadı: %v", logErr)
			}
		}
		bus.Publish(notify.Event{Resource: "stock_item", ID: item.ID, Action: "delete"})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
