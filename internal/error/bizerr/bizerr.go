// Package bizerr 定义业务层的类型化错误，表现层据此映射到统一的错误码。
package bizerr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindState // 状态冲突，属于 Conflict 的一种
	KindNotFound
	KindStore
	KindCodeExpired
	KindCodeMismatch
	KindCredential
	KindLimited
	KindIO
	KindThirdParty
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindValidation:      "validation",
	KindUnauthenticated: "unauthenticated",
	KindForbidden:       "forbidden",
	KindConflict:        "conflict",
	KindState:           "state",
	KindNotFound:        "not_found",
	KindStore:           "store",
	KindCodeExpired:     "code_expired",
	KindCodeMismatch:    "code_mismatch",
	KindCredential:      "credential",
	KindLimited:         "limited",
	KindIO:              "io",
	KindThirdParty:      "third_party",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error 业务错误。Reason 用于 errors.Is 比较，Message 面向用户，Err 为底层错误
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

// New 创建业务错误
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按 Reason 比较
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Reason == "" {
		return false
	}
	return t.Reason == e.Reason
}

// Wrap 复制业务错误并附加底层错误
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage 复制业务错误并替换用户消息
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// 预定义的业务错误
var (
	ErrInvalidDateRange    = New(KindValidation, "InvalidDateRange", "入住日期有误")
	ErrDurationOutOfBounds = New(KindValidation, "DurationOutOfBounds", "入住天数不符合房屋要求")

	ErrHouseUnavailable   = New(KindConflict, "HouseUnavailable", "所选日期房屋已被预订")
	ErrDuplicateName      = New(KindConflict, "DuplicateName", "用户名已存在")
	ErrDuplicateMobile    = New(KindConflict, "DuplicateMobile", "手机号已注册")
	ErrRealNameAlreadySet = New(KindConflict, "RealNameAlreadySet", "已完成实名认证")

	ErrInvalidTransition = New(KindState, "InvalidTransition", "订单当前状态不允许该操作")
	ErrInvalidState      = New(KindState, "InvalidState", "订单当前状态不能评价")

	ErrSelfBooking     = New(KindForbidden, "SelfBooking", "不能预订自己的房屋")
	ErrNotOrderParty   = New(KindForbidden, "NotOrderParty", "无权操作该订单")
	ErrNotHouseOwner   = New(KindForbidden, "NotHouseOwner", "无权操作该房屋")
	ErrUnauthenticated = New(KindUnauthenticated, "Unauthenticated", "用户未登录")

	ErrHouseNotFound = New(KindNotFound, "HouseNotFound", "房屋不存在")
	ErrOrderNotFound = New(KindNotFound, "OrderNotFound", "订单不存在")
	ErrUserNotFound  = New(KindNotFound, "UserNotFound", "用户不存在")
	ErrAreaNotFound  = New(KindNotFound, "AreaNotFound", "城区不存在")

	ErrCodeExpiredOrMissing = New(KindCodeExpired, "CodeExpiredOrMissing", "验证码已过期")
	ErrCodeMismatch         = New(KindCodeMismatch, "CodeMismatch", "验证码错误")

	ErrLoginFailed  = New(KindCredential, "LoginFailed", "手机号或密码错误")
	ErrLoginLimited = New(KindLimited, "LoginLimited", "错误次数过多，请稍后重试")
	ErrSendTooOften = New(KindLimited, "SendTooOften", "请求过于频繁，请稍后重试")
)

// Validation 参数错误
func Validation(message string) *Error {
	return New(KindValidation, "Validation", message)
}

// Store 数据库或缓存错误，消息不对外暴露
func Store(err error) *Error {
	return &Error{Kind: KindStore, Reason: "Store", Message: "数据库查询错误", Err: err}
}

// IO 文件读写错误
func IO(err error, message string) *Error {
	return &Error{Kind: KindIO, Reason: "IO", Message: message, Err: err}
}

// ThirdParty 第三方服务错误
func ThirdParty(err error, message string) *Error {
	return &Error{Kind: KindThirdParty, Reason: "ThirdParty", Message: message, Err: err}
}

// KindOf 取错误链上第一个业务错误的类别
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
