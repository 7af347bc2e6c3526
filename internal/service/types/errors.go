// Package types 提供服务层共享的类型与错误定义
package types

import (
	"errors"
	"fmt"
)

// ErrorKind 业务错误类别
type ErrorKind int

const (
	// KindPreconditionFailed 前置条件不满足（无可划分示例、无验证集、模型相同等）
	KindPreconditionFailed ErrorKind = iota + 1
	// KindUpstreamGenerationFailed 服务商生成调用失败，整批终止
	KindUpstreamGenerationFailed
	// KindNotFound 引用的记录不存在
	KindNotFound
	// KindConflict 目标处于锁定状态，拒绝变更
	KindConflict
)

// Error 带类别的业务错误
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Err
}

// PreconditionFailed 创建前置条件错误
func PreconditionFailed(format string, args ...interface{}) error {
	return &Error{Kind: KindPreconditionFailed, Msg: fmt.Sprintf(format, args...)}
}

// UpstreamGenerationFailed 创建上游生成失败错误
func UpstreamGenerationFailed(msg string, err error) error {
	return &Error{Kind: KindUpstreamGenerationFailed, Msg: msg, Err: err}
}

// NotFound 创建未找到错误
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict 创建冲突错误
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf 返回错误类别，非业务错误返回 0
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
