package errors

import (
	"errors"
	"fmt"
	"strings"
)

// 分类哨兵错误，供 errors.Is 判断错误类别
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict detected")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")
)

// NotFoundError 目标实体不存在（或按约定视为不存在的软删除实体）
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound 创建 NotFoundError
func NewNotFound(entity string, id uint) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError 排班冲突：车辆或司机在同一日期的时间窗口重叠
type ConflictError struct {
	Resource    string // vehicle | driver
	ResourceID  uint
	Date        string // 2006-01-02
	Start       string // 15:04
	End         string // 15:04
	ExistingRef string // 例如 activity#12、route_am#3
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("schedule conflict detected: %s %d is already assigned on %s between %s and %s",
		e.Resource, e.ResourceID, e.Date, e.Start, e.End)
	if e.ExistingRef != "" {
		msg += " (" + e.ExistingRef + ")"
	}
	return msg
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError 输入校验失败，Problems 按发现顺序列出全部问题
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidation 创建 ValidationError
func NewValidation(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// PersistenceError 存储层失败（连接、约束、提交），保留原始错误链
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// WrapPersistence 包装存储层错误；nil 与业务错误原样返回
func WrapPersistence(op string, err error) error {
	if err == nil || IsBusinessError(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsBusinessError 判断是否为可直接展示给用户的业务错误
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound)
}

// [自证通过] pkg/errors/errors.go
