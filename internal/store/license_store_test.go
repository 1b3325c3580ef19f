package store

import (
	"license-key-server/internal/database"
	"license-key-server/internal/engine"
	"license-key-server/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func newTestStore(t *testing.T) *LicenseStore {
	t.Helper()
	database.InitTestDB()
	t.Cleanup(database.CleanTestDB)
	return NewLicenseStore(database.DB)
}

func TestFindByKeyAbsent(t *testing.T) {
	s := newTestStore(t)

	// 不存在的卡密返回 nil 而不是错误
	lic, err := s.FindByKey("no-such-key")
	assert.NoError(t, err)
	assert.Nil(t, lic)
}

func TestBindIfUnboundFirstWriteWins(t *testing.T) {
	s := newTestStore(t)

	lic := &model.License{
		Key:          "KEY-A",
		ScriptType:   "K7",
		DurationDays: intPtr(30),
	}
	assert.NoError(t, s.Create(lic))

	expiresAt := time.Now().UTC().AddDate(0, 0, 30)

	// 第一次绑定成功
	won, err := s.BindIfUnbound("KEY-A", &engine.Mutation{Hwid: "H1", ExpiresAt: &expiresAt})
	assert.NoError(t, err)
	assert.True(t, won)

	// 第二次绑定必须失败：hwid 已非空，条件更新不命中任何行
	won, err = s.BindIfUnbound("KEY-A", &engine.Mutation{Hwid: "H2", ExpiresAt: &expiresAt})
	assert.NoError(t, err)
	assert.False(t, won)

	bound, err := s.FindByKey("KEY-A")
	assert.NoError(t, err)
	assert.NotNil(t, bound.Hwid)
	assert.Equal(t, "H1", *bound.Hwid)
	assert.NotNil(t, bound.ExpiresAt)
}

func TestBindFixedExpiryLeavesExpiryAlone(t *testing.T) {
	s := newTestStore(t)

	expiresAt := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	lic := &model.License{
		Key:        "KEY-B",
		ScriptType: "K7",
		ExpiresAt:  &expiresAt,
	}
	assert.NoError(t, s.Create(lic))

	// 固定到期的激活只写 hwid
	won, err := s.BindIfUnbound("KEY-B", &engine.Mutation{Hwid: "H1"})
	assert.NoError(t, err)
	assert.True(t, won)

	bound, err := s.FindByKey("KEY-B")
	assert.NoError(t, err)
	assert.Equal(t, "H1", *bound.Hwid)
	assert.True(t, bound.ExpiresAt.Equal(expiresAt))
}

func TestUnbindIfMatch(t *testing.T) {
	s := newTestStore(t)

	expiresAt := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	hwid := "H1"
	lic := &model.License{
		Key:        "KEY-C",
		ScriptType: "K7",
		Hwid:       &hwid,
		ExpiresAt:  &expiresAt,
	}
	assert.NoError(t, s.Create(lic))

	// 硬件不符不命中
	cleared, err := s.UnbindIfMatch("KEY-C", "H2")
	assert.NoError(t, err)
	assert.False(t, cleared)

	// 匹配时清除 hwid，到期时间保持不变
	cleared, err = s.UnbindIfMatch("KEY-C", "H1")
	assert.NoError(t, err)
	assert.True(t, cleared)

	unbound, err := s.FindByKey("KEY-C")
	assert.NoError(t, err)
	assert.Nil(t, unbound.Hwid)
	assert.True(t, unbound.ExpiresAt.Equal(expiresAt))

	// 已解绑再次解绑不命中
	cleared, err = s.UnbindIfMatch("KEY-C", "H1")
	assert.NoError(t, err)
	assert.False(t, cleared)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	lic := &model.License{Key: "KEY-D", ScriptType: "K7", DurationDays: intPtr(7)}
	assert.NoError(t, s.Create(lic))

	deleted, err := s.Delete("KEY-D")
	assert.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete("KEY-D")
	assert.NoError(t, err)
	assert.False(t, deleted)
}
