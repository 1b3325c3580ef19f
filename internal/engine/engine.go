// Package engine 实现卡密激活与验证的决策逻辑。
// 所有判定都是纯函数：输入记录和请求参数，输出带标签的结果，
// 需要落库的变更由调用方按条件更新原子地执行。
package engine

import (
	"license-key-server/internal/model"
	"time"
)

// Code 决策结果标签
type Code string

const (
	CodeValid             Code = "valid"              // 已绑定且未过期
	CodeActivatedDuration Code = "activated_duration" // 首次激活，按天数计算到期时间
	CodeActivatedFixed    Code = "activated_fixed"    // 首次激活，到期时间发卡时已固定
	CodeInvalid           Code = "invalid"            // 卡密不存在
	CodeTypeMismatch      Code = "type_mismatch"      // 脚本类型不匹配
	CodeHardwareMismatch  Code = "hardware_mismatch"  // 硬件ID不匹配
	CodeExpired           Code = "expired"            // 授权已过期
	CodeAnomalous         Code = "anomalous"          // 已绑定却没有到期时间，数据异常
	CodeUnactivatable     Code = "unactivatable"      // 既无天数也无未来的固定到期时间
	CodeUnbound           Code = "unbound"            // 解绑成功
	CodeRejected          Code = "rejected"           // 解绑被拒绝，不区分具体原因
)

// Success 是否为业务成功结果
func (c Code) Success() bool {
	switch c {
	case CodeValid, CodeActivatedDuration, CodeActivatedFixed, CodeUnbound:
		return true
	}
	return false
}

// Mutation 激活时需要原子写入的变更。
// ExpiresAt 仅在按天数激活时设置，固定到期的卡密只写 hwid。
type Mutation struct {
	Hwid      string
	ExpiresAt *time.Time
}

// Outcome 一次验证/激活请求的决策结果
type Outcome struct {
	Code      Code
	Message   string
	ExpiresAt *time.Time
	Mutation  *Mutation
}

// Decide 按固定顺序评估一次验证/激活请求。
// 顺序即契约：多个拒绝条件同时成立时，靠前的检查决定返回的原因。
// lic 为 nil 表示卡密不存在。now 由调用方每个请求采样一次。
func Decide(lic *model.License, scriptType, hwid string, now time.Time) Outcome {
	// 1. 卡密不存在
	if lic == nil {
		return Outcome{Code: CodeInvalid, Message: "卡密无效"}
	}

	// 2. 脚本类型必须完全一致，先于硬件和过期检查
	if lic.ScriptType != scriptType {
		return Outcome{Code: CodeTypeMismatch, Message: "脚本类型不匹配"}
	}

	// 3. 已绑定：校验硬件和有效期
	if lic.Bound() {
		if *lic.Hwid != hwid {
			return Outcome{Code: CodeHardwareMismatch, Message: "硬件ID不匹配"}
		}
		// 已绑定的卡密必须有到期时间，缺失说明发卡或数据有缺陷，不能当作有效
		if lic.ExpiresAt == nil {
			return Outcome{Code: CodeAnomalous, Message: "授权数据异常，请联系管理员"}
		}
		if lic.ExpiresAt.Before(now) {
			return Outcome{Code: CodeExpired, Message: "授权已过期"}
		}
		// 验证通过，到期时间不变
		return Outcome{Code: CodeValid, Message: "验证成功", ExpiresAt: lic.ExpiresAt}
	}

	// 4. 未绑定：首次激活
	if lic.DurationDays != nil && *lic.DurationDays > 0 {
		expiresAt := now.AddDate(0, 0, *lic.DurationDays)
		return Outcome{
			Code:      CodeActivatedDuration,
			Message:   "绑定成功",
			ExpiresAt: &expiresAt,
			Mutation:  &Mutation{Hwid: hwid, ExpiresAt: &expiresAt},
		}
	}
	if lic.ExpiresAt != nil && lic.ExpiresAt.After(now) {
		return Outcome{
			Code:      CodeActivatedFixed,
			Message:   "绑定成功",
			ExpiresAt: lic.ExpiresAt,
			Mutation:  &Mutation{Hwid: hwid},
		}
	}
	return Outcome{Code: CodeUnactivatable, Message: "卡密无法激活"}
}

// DecideUnbind 判定一次解绑请求。
// 只有卡密存在、已绑定且硬件ID完全一致才允许解绑；
// 其余情况（卡密不存在、未绑定、硬件不符）统一返回同一条失败信息，
// 避免向猜测硬件ID的调用方泄露绑定状态。
func DecideUnbind(lic *model.License, hwid string) Outcome {
	if lic != nil && lic.Bound() && *lic.Hwid == hwid {
		return Outcome{Code: CodeUnbound, Message: "解绑成功"}
	}
	return Outcome{Code: CodeRejected, Message: "解绑失败，卡密或硬件ID不匹配"}
}
