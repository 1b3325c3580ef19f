package model

import "time"

// License 卡密记录：hwid 为空表示未绑定，绑定后只能通过解绑接口清除
type License struct {
	Key          string     `json:"key" gorm:"primaryKey"`
	Hwid         *string    `json:"hwid" gorm:"index"`
	ScriptType   string     `json:"script_type" gorm:"not null"`
	ExpiresAt    *time.Time `json:"expires_at"`
	DurationDays *int       `json:"duration_days"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Bound 是否已绑定硬件
func (l *License) Bound() bool {
	return l.Hwid != nil && *l.Hwid != ""
}
