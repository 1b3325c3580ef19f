// Package store 封装卡密记录的读取和条件更新。
// 绑定和解绑都通过带条件的单条 UPDATE 完成，用影响行数判断竞争胜负，
// 不持有跨请求的锁或事务。
package store

import (
	"errors"
	"license-key-server/internal/engine"
	"license-key-server/internal/model"
	"time"

	"gorm.io/gorm"
)

type LicenseStore struct {
	db *gorm.DB
}

func NewLicenseStore(db *gorm.DB) *LicenseStore {
	return &LicenseStore{db: db}
}

// FindByKey 查询卡密，不存在时返回 (nil, nil)
func (s *LicenseStore) FindByKey(key string) (*model.License, error) {
	var lic model.License
	result := s.db.Where("key = ?", key).First(&lic)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &lic, nil
}

// BindIfUnbound 按条件执行首次绑定：仅当 hwid 仍为空时写入。
// 返回 false 表示绑定竞争已被其他请求抢先，调用方应重新读取并重新判定。
func (s *LicenseStore) BindIfUnbound(key string, mutation *engine.Mutation) (bool, error) {
	updates := map[string]interface{}{
		"hwid":       mutation.Hwid,
		"updated_at": time.Now(),
	}
	if mutation.ExpiresAt != nil {
		updates["expires_at"] = *mutation.ExpiresAt
	}

	result := s.db.Model(&model.License{}).
		Where("key = ? AND hwid IS NULL", key).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UnbindIfMatch 按条件清除绑定：仅当 key 和 hwid 都匹配时生效。
// 到期时间保持不变。
func (s *LicenseStore) UnbindIfMatch(key, hwid string) (bool, error) {
	result := s.db.Model(&model.License{}).
		Where("key = ? AND hwid = ?", key, hwid).
		Updates(map[string]interface{}{
			"hwid":       nil,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Create 写入一条新卡密记录
func (s *LicenseStore) Create(lic *model.License) error {
	return s.db.Create(lic).Error
}

// List 返回全部卡密
func (s *LicenseStore) List() ([]model.License, error) {
	var licenses []model.License
	if err := s.db.Find(&licenses).Error; err != nil {
		return nil, err
	}
	return licenses, nil
}

// Delete 删除卡密记录
func (s *LicenseStore) Delete(key string) (bool, error) {
	result := s.db.Where("key = ?", key).Delete(&model.License{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
