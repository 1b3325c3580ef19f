package handler

import (
	"license-key-server/internal/database"
	"license-key-server/internal/engine"
	"license-key-server/internal/model"
	"license-key-server/internal/service"
	"license-key-server/internal/store"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var sheetSync *service.SheetSyncService

func InitSheetSync(enableSync bool, credentialPath, spreadsheetID, sheetName string) (*service.SheetSyncService, error) {
	var err error
	sheetSync, err = service.NewSheetSyncService(enableSync, credentialPath, spreadsheetID, sheetName)
	return sheetSync, err
}

// VerifyInput 客户端验证/激活请求
type VerifyInput struct {
	Key        string `json:"key"`
	Hwid       string `json:"hwid"`
	ScriptType string `json:"script_type"`
}

// UnbindInput 客户端解绑请求
type UnbindInput struct {
	Key  string `json:"key"`
	Hwid string `json:"hwid"`
}

// HandleVerify 验证或首次激活卡密。
// 业务上的失败（卡密无效、硬件不符、已过期等）一律返回 200，
// 由 status 字段区分；只有请求不合法或存储故障才返回 4xx/5xx。
func HandleVerify(c *fiber.Ctx) error {
	input := new(VerifyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "failure",
			"message": "无效的输入数据",
		})
	}

	if input.Key == "" || input.Hwid == "" || input.ScriptType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "failure",
			"message": "缺少 key、hwid 或 script_type 参数",
		})
	}

	// now 每个请求只采样一次，整个判定过程使用同一时刻
	now := time.Now().UTC()
	licenses := store.NewLicenseStore(database.DB)

	lic, err := licenses.FindByKey(input.Key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "failure",
			"message": "查询卡密失败",
		})
	}

	outcome := engine.Decide(lic, input.ScriptType, input.Hwid, now)
	action := "verify"

	if outcome.Mutation != nil {
		action = "activate"
		won, err := licenses.BindIfUnbound(input.Key, outcome.Mutation)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "failure",
				"message": "激活卡密失败",
			})
		}
		if !won {
			// 激活竞争失败：另一请求已抢先绑定。
			// 重新读取记录，按已绑定分支重新判定，不沿用旧数据。
			// 本请求最终没有执行绑定，使用记录按普通验证记。
			action = "verify"
			lic, err = licenses.FindByKey(input.Key)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"status":  "failure",
					"message": "查询卡密失败",
				})
			}
			outcome = engine.Decide(lic, input.ScriptType, input.Hwid, now)
			if outcome.Mutation != nil {
				// 重读后仍未绑定，说明期间又被解绑，按冲突处理
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"status":  "failure",
					"message": "卡密状态冲突，请重试",
				})
			}
		} else if sheetSync != nil {
			// 同步只是镜像，重读失败就跳过，不影响业务结果
			if bound, err := licenses.FindByKey(input.Key); err == nil && bound != nil {
				go sheetSync.SyncLicense(bound)
			}
		}
	}

	service.LogUsage(input.Key, action, string(outcome.Code), c.IP(), c.Get("User-Agent"))

	resp := fiber.Map{
		"message": outcome.Message,
	}
	if outcome.Code.Success() {
		resp["status"] = "success"
		if outcome.ExpiresAt != nil {
			resp["expires_at"] = outcome.ExpiresAt.UTC().Format(time.RFC3339)
		}
	} else {
		resp["status"] = "failure"
	}
	return c.JSON(resp)
}

// HandleUnbind 解绑硬件。
// 先校验 key 和 hwid 是否匹配，防止恶意解绑；
// 实际清除通过条件更新执行，避免与并发解绑或激活竞争。
func HandleUnbind(c *fiber.Ctx) error {
	input := new(UnbindInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "failure",
			"message": "无效的输入数据",
		})
	}

	if input.Key == "" || input.Hwid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "failure",
			"message": "缺少 key 或 hwid 参数",
		})
	}

	licenses := store.NewLicenseStore(database.DB)

	lic, err := licenses.FindByKey(input.Key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "failure",
			"message": "查询卡密失败",
		})
	}

	outcome := engine.DecideUnbind(lic, input.Hwid)
	if outcome.Code.Success() {
		cleared, err := licenses.UnbindIfMatch(input.Key, input.Hwid)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "failure",
				"message": "解绑卡密失败",
			})
		}
		if !cleared {
			// 判定和更新之间绑定已变化，按不匹配处理
			outcome = engine.DecideUnbind(nil, input.Hwid)
		}
	}

	service.LogUsage(input.Key, "unbind", string(outcome.Code), c.IP(), c.Get("User-Agent"))

	status := "failure"
	if outcome.Code.Success() {
		status = "success"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"message": outcome.Message,
	})
}

// HandleGetAllLicenses 管理员获取所有卡密数据
func HandleGetAllLicenses(c *fiber.Ctx) error {
	licenses, err := store.NewLicenseStore(database.DB).List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取卡密数据失败",
		})
	}

	return c.JSON(fiber.Map{
		"licenses": licenses,
	})
}

// HandleLicenseGenerate 管理员批量生成卡密。
// duration_days 和 expires_at 必须且只能提供一种，决定激活时如何确定有效期。
func HandleLicenseGenerate(c *fiber.Ctx) error {
	input := new(model.GenerateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的输入数据",
		})
	}

	if input.ScriptType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "脚本类型不能为空",
		})
	}

	hasDuration := input.DurationDays != nil && *input.DurationDays > 0
	hasExpiry := input.ExpiresAt != nil && input.ExpiresAt.After(time.Now())
	if hasDuration == hasExpiry {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "必须且只能提供 duration_days 或未来的 expires_at 之一",
		})
	}

	count := input.Count
	if count < 1 {
		count = 1
	}
	if count > 100 {
		count = 100
	}

	licenses := store.NewLicenseStore(database.DB)
	created := make([]model.License, 0, count)
	for i := 0; i < count; i++ {
		lic := model.License{
			Key:        uuid.NewString(),
			ScriptType: input.ScriptType,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if hasDuration {
			days := *input.DurationDays
			lic.DurationDays = &days
		} else {
			expiresAt := input.ExpiresAt.UTC()
			lic.ExpiresAt = &expiresAt
		}

		if err := licenses.Create(&lic); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "生成卡密失败",
			})
		}
		if sheetSync != nil {
			go sheetSync.SyncLicense(&lic)
		}
		created = append(created, lic)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"licenses": created,
	})
}

// HandleGetLicense 获取单个卡密详情
func HandleGetLicense(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "卡密不能为空",
		})
	}

	lic, err := store.NewLicenseStore(database.DB).FindByKey(key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询卡密失败",
		})
	}
	if lic == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "卡密不存在",
		})
	}

	return c.JSON(lic)
}

// HandleLicenseDelete 删除卡密
func HandleLicenseDelete(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "卡密不能为空",
		})
	}

	deleted, err := store.NewLicenseStore(database.DB).Delete(key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除卡密失败",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "卡密不存在",
		})
	}

	return c.JSON(fiber.Map{
		"message": "卡密删除成功",
	})
}

// HandleLicenseUsage 查询卡密使用记录
func HandleLicenseUsage(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "卡密不能为空",
		})
	}

	usages, err := service.GetUsageLogs(key, 20)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询使用记录失败",
		})
	}

	return c.JSON(fiber.Map{
		"usages": usages,
	})
}
