package main

import (
	"license-key-server/internal/config"
	"license-key-server/internal/database"
	"license-key-server/internal/handler"
	"license-key-server/internal/middleware"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}

	// 初始化数据库
	database.InitDB(cfg.DatabasePath)

	// 初始化 Google Sheets 同步（可选）
	if _, err := handler.InitSheetSync(cfg.SheetSyncEnabled, cfg.SheetCredentials, cfg.SheetSpreadsheetID, cfg.SheetName); err != nil {
		log.Fatal("初始化Sheet同步失败:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// 中间件
	app.Use(logger.New())
	app.Use(cors.New())

	// 路由组
	api := app.Group("/api/v1")

	// 客户端路由：主密钥校验
	client := api.Group("/client")
	client.Use(middleware.APIKey(cfg.MasterKey))
	client.Post("/verify", handler.HandleVerify)
	client.Post("/unbind", handler.HandleUnbind)

	// 用户路由
	users := api.Group("/users")
	users.Post("/register", handler.HandleUserRegister)
	users.Post("/login", handler.MakeLoginHandler(cfg.JWTSecret))

	// 认证路由
	auth := api.Group("/auth")
	auth.Use(middleware.Auth(cfg.JWTSecret))
	auth.Post("/change-password", handler.HandleChangePassword)

	// 管理端卡密路由
	licenses := api.Group("/licenses")
	licenses.Use(middleware.Auth(cfg.JWTSecret))
	licenses.Get("/licenses", middleware.AdminOnly(), handler.HandleGetAllLicenses)
	licenses.Post("/generate", middleware.AdminOnly(), handler.HandleLicenseGenerate)
	licenses.Delete("/:key", middleware.AdminOnly(), handler.HandleLicenseDelete)
	licenses.Get("/usage", handler.HandleLicenseUsage)
	licenses.Get("/:key", handler.HandleGetLicense)

	log.Fatal(app.Listen(cfg.ListenAddr))
}
