package service

import "fmt"

// 错误分类。handler层据此映射HTTP状态码：
// ValidationError→400, AuthorizationError→403, NotFoundError→404,
// ConflictError→409, StorageError→500。

// ValidationError 输入不合法
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError 提案/文档/Blob不存在。Resource区分缺失的是哪一层，
// 便于观测，不合并成笼统的404。
type NotFoundError struct {
	Resource string // proposal/document/blob
	Reason   string
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.Reason)
	}
	return e.Resource + " not found"
}

// ConflictError 状态迁移不合法，或乐观并发检查落败。
// CurrentStatus携带权威的当前状态，调用方据此重新同步。
type ConflictError struct {
	CurrentStatus string
	Msg           string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (current status: %s)", e.Msg, e.CurrentStatus)
}

// AuthorizationError 角色无权执行该动作
type AuthorizationError struct {
	Role   string
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %q is not allowed to perform %q", e.Role, e.Action)
}

// StorageError 底层存储不可用或写入失败。对外只暴露笼统失败，
// 细节留在日志里。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
