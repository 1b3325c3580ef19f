package service

import (
	"license-key-server/internal/database"
	"license-key-server/internal/model"
	"time"
)

// LogUsage 记录一次验证/激活/解绑请求及其结果。
// 记录失败不影响业务响应，错误由调用方决定是否忽略。
func LogUsage(key, action, outcome, ip, userAgent string) error {
	usage := &model.LicenseUsage{
		LicenseKey: key,
		Action:     action,
		Outcome:    outcome,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Timestamp:  time.Now(),
	}
	return database.DB.Create(usage).Error
}

// GetUsageLogs 查询某个卡密最近的使用记录
func GetUsageLogs(key string, limit int) ([]model.LicenseUsage, error) {
	var usages []model.LicenseUsage
	if err := database.DB.Where("license_key = ?", key).
		Order("timestamp desc").Limit(limit).Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}
