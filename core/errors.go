package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）与 errors.Is / errors.As
//
// 使用场景：
//   - Dataset 错误：NOT_FOUND（数据源不存在）, INVALID_SCHEMA（缺少必需列）
//   - Store 错误：NOT_FOUND（key 不存在）, UNAVAILABLE（连接失败）
//   - Service 错误：INVALID_INPUT
//
// 引擎（cf 包）本身不产生 DomainError：未知用户、零重叠、零邻居都是正常结果。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_SCHEMA"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "store", "service"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is 按 Module + Code 匹配，而不是按指针匹配。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInvalidSchema = "INVALID_SCHEMA" // 数据结构无效（缺少必需字段）
)

// 模块名称常量
const (
	ModuleDataset = "dataset" // 数据加载模块
	ModuleStore   = "store"   // 存储模块
	ModuleService = "service" // 服务模块
)

// 数据加载错误，由 RatingSource 返回，调用方原样透出，不重试。
var (
	// ErrDataUnavailable 表示评分数据源无法定位
	ErrDataUnavailable = NewDomainError(ModuleDataset, ErrorCodeNotFound, "dataset: rating source not found")

	// ErrSchemaInvalid 表示加载后缺少必需字段
	ErrSchemaInvalid = NewDomainError(ModuleDataset, ErrorCodeInvalidSchema, "dataset: required fields missing")
)

// 通用错误检查函数

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsDataUnavailable 检查错误是否为数据源不存在
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// IsSchemaInvalid 检查错误是否为数据结构无效
func IsSchemaInvalid(err error) bool {
	return errors.Is(err, ErrSchemaInvalid)
}
