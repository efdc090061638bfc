package main

import (
	"log"
	"strings"

	"pazaryeri-backend/internal/auth"
	"pazaryeri-backend/internal/config"
	"pazaryeri-backend/internal/database"
	"pazaryeri-backend/internal/finance"
	"pazaryeri-backend/internal/ledger"
	"pazaryeri-backend/internal/notify"
	"pazaryeri-backend/internal/request"
	"pazaryeri-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	bus := notify.NewBus()
	defer bus.Close()

	// Bildirimler en-iyi-çabadır; burada sadece loglanır, canlı arayüz
	// aynı kanala abone olabilir.
	events := bus.Subscribe(64)
	go func() {
		for ev := range events {
			log.Printf("değişiklik: %s #%d %s", ev.Resource, ev.ID, ev.Action)
		}
	}()

	requestWF := request.NewWorkflow(database.DB, bus)
	financeWF := finance.NewWorkflow(database.DB, bus)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler())
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Ürün/stok yönetimi
	protected.Post("/items", stock.CreateItemHandler(bus))
	protected.Get("/items", stock.ListItemsHandler())
	protected.Get("/items/:id", stock.GetItemHandler())
	protected.Put("/items/:id", stock.UpdateItemHandler(bus))
	protected.Delete("/items/:id", stock.DeleteItemHandler(bus))

	// Satın alma talepleri
	protected.Post("/requests", request.CreateRequestHandler(requestWF))
	protected.Get("/requests/related", request.ListRelatedRequestsHandler())
	protected.Get("/requests", request.ListAllRequestsHandler())
	protected.Get("/my/requests", request.ListMyRequestsHandler())
	protected.Put("/requests/:id/confirm", request.ConfirmRequestHandler(requestWF))
	protected.Put("/requests/:id/cancel", request.CancelRequestHandler(requestWF))
	protected.Delete("/requests/:id", request.DeleteRequestHandler(requestWF))

	// Para hareketleri
	protected.Post("/transactions", finance.CreateTransactionHandler(financeWF))
	protected.Get("/transactions", ledger.ListTransactionsHandler())
	protected.Put("/transactions/:id", ledger.UpdateTransactionHandler(bus))
	protected.Get("/balance", ledger.BalanceHandler())

	// Onay talepleri
	protected.Get("/finance-requests/related", finance.ListRelatedFinanceRequestsHandler())
	protected.Put("/finance-requests/:id/confirm", finance.ConfirmFinanceRequestHandler(financeWF))
	protected.Put("/finance-requests/:id/cancel", finance.CancelFinanceRequestHandler(financeWF))

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
