package stock

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"pazaryeri-backend/internal/auth"
	"pazaryeri-backend/internal/database"
	"pazaryeri-backend/internal/models"
	"pazaryeri-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeleteApp(asUserID uint, role models.UserRole) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, asUserID)
		c.Locals(auth.CtxUserRoleKey, role)
		return c.Next()
	})
	app.Delete("/api/items/:id", DeleteItemHandler(notify.NewBus()))
	return app
}

func TestDeleteItemHandler_RejectsWhilePendingRequestExists(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.PurchaseRequest{}, &models.User{}, &models.AuditLog{}))
	database.DB = db

	item := seedItem(t, db, 10)
	require.NoError(t, db.Create(&models.PurchaseRequest{
		ItemID:   item.ID,
		BuyerID:  2,
		Quantity: 3,
		Status:   models.StatusPending,
	}).Error)

	app := newDeleteApp(item.OwnerID, models.RoleUser)
	resp, err := app.Test(httptest.NewRequest("DELETE", fmt.Sprintf("/api/items/%d", item.ID), nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var got models.StockItem
	assert.NoError(t, db.First(&got, item.ID).Error, "ürün yerinde kalmalı")
}

// Bekleyen-talep sorgusu hata verirse silme reddedilmeli; sayaç 0 kalmış
// gibi davranıp korumayı atlamak stok rezervasyonunu sızdırır.
func TestDeleteItemHandler_CountErrorBlocksDelete(t *testing.T) {
	// purchase_requests tablosu kasıtlı olarak migrate edilmez
	db := newTestDB(t)
	database.DB = db

	item := seedItem(t, db, 10)

	app := newDeleteApp(item.OwnerID, models.RoleUser)
	resp, err := app.Test(httptest.NewRequest("DELETE", fmt.Sprintf("/api/items/%d", item.ID), nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var got models.StockItem
	assert.NoError(t, db.First(&got, item.ID).Error, "ürün silinmemiş olmalı")
}

func TestDeleteItemHandler_DeletesWhenNoPendingRequests(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.PurchaseRequest{}, &models.User{}, &models.AuditLog{}))
	database.DB = db

	owner := models.User{Name: "Mehmet", Email: "mehmet@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&owner).Error)

	item := models.StockItem{OwnerID: owner.ID, Name: "Zeytinyağı 1L", Quantity: 5, UnitCost: 100, Currency: "TRY"}
	require.NoError(t, db.Create(&item).Error)

	app := newDeleteApp(owner.ID, models.RoleUser)
	resp, err := app.Test(httptest.NewRequest("DELETE", fmt.Sprintf("/api/items/%d", item.ID), nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var count int64
	db.Model(&models.StockItem{}).Count(&count)
	assert.Zero(t, count)
}
