package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Build 错误：DATA_UNAVAILABLE, MALFORMED_INPUT
//   - 配置错误：INVALID_CONFIG
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 向量检索错误：TIMEOUT（召回链路内部消化，不上抛给调用方）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "DATA_UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "index", "store", "vector"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound        = "NOT_FOUND"        // 资源不存在
	ErrorCodeNotSupported    = "NOT_SUPPORTED"    // 操作不支持
	ErrorCodeDataUnavailable = "DATA_UNAVAILABLE" // 构建输入缺失/为空，Build 必须失败
	ErrorCodeMalformedInput  = "MALFORMED_INPUT"  // 坏记录比例超过阈值，Build 必须失败
	ErrorCodeInvalidConfig   = "INVALID_CONFIG"   // 配置非法，使用前即拒绝
	ErrorCodeTimeout         = "TIMEOUT"          // 外部检索超时（链路内降级）
	ErrorCodeInternalError   = "INTERNAL_ERROR"   // 内部错误
)

// 模块名称常量
const (
	ModuleIndex  = "index"  // 索引构建模块
	ModuleStore  = "store"  // 存储模块
	ModuleVector = "vector" // 向量模块
	ModuleConfig = "config" // 配置模块
	ModuleServe  = "serve"  // 服务模块
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsDataUnavailable 检查错误是否为 DATA_UNAVAILABLE
func IsDataUnavailable(err error) bool { return hasCode(err, ErrorCodeDataUnavailable) }

// IsMalformedInput 检查错误是否为 MALFORMED_INPUT
func IsMalformedInput(err error) bool { return hasCode(err, ErrorCodeMalformedInput) }

// IsInvalidConfig 检查错误是否为 INVALID_CONFIG
func IsInvalidConfig(err error) bool { return hasCode(err, ErrorCodeInvalidConfig) }

// IsTimeout 检查错误是否为 TIMEOUT
func IsTimeout(err error) bool { return hasCode(err, ErrorCodeTimeout) }

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}
