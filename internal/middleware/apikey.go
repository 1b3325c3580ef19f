package middleware

import "github.com/gofiber/fiber/v2"

// APIKey 客户端接口的主密钥校验，在任何业务逻辑之前执行。
// 密钥不匹配直接返回 401，与业务层面的失败响应区分开。
func APIKey(masterKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("X-API-Key") != masterKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "failure",
				"message": "无效的 API 密钥",
			})
		}
		return c.Next()
	}
}
