package model

import "time"

// GenerateInput 管理员生成卡密的输入：duration_days 与 expires_at 二选一
type GenerateInput struct {
	ScriptType   string     `json:"script_type"`
	DurationDays *int       `json:"duration_days"`
	ExpiresAt    *time.Time `json:"expires_at"`
	Count        int        `json:"count"`
}
