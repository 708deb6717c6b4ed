// Package response 定义了统一的 API 响应结构和稳定的业务错误码。
// 所有接口无论成功失败都返回同一结构，调用方通过 code 字段区分结果。
package response

import (
	"errors"
	"net/http"
	"time"
)

// 业务错误码。成功固定为 "000000"，错误码一经发布不再变更。
const (
	CodeSuccess      = "000000"
	CodeParamError   = "E00001" // 参数错误
	CodeUserExists   = "E00002" // 用户已存在
	CodeUserNotFound = "E00003" // 用户不存在
	CodePassword     = "E00004" // 密码错误
	CodeBadRequest   = "E00400" // 请求不合法（文件类型、大小、批量数量等）
	CodeUnauthorized = "E00401" // 未授权访问
	CodeForbidden    = "E00403" // 权限不足
	CodeNotFound     = "E00404" // 资源不存在
	CodeServerError  = "E00500" // 服务器内部错误
)

const timestampFormat = "2006-01-02 15:04:05.000"

// APIResponse 是所有接口的统一响应体。
type APIResponse struct {
	Code       string      `json:"code"`
	StatusCode int         `json:"statusCode"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Timestamp  string      `json:"timestamp"`
}

// New 构造一个响应体并填充当前时间戳。
func New(code string, statusCode int, msg string, data interface{}) *APIResponse {
	return &APIResponse{
		Code:       code,
		StatusCode: statusCode,
		Msg:        msg,
		Data:       data,
		Timestamp:  time.Now().UTC().Format(timestampFormat),
	}
}

// Success 构造一个成功响应。
func Success(data interface{}, msg string) *APIResponse {
	if msg == "" {
		msg = "Success"
	}
	return New(CodeSuccess, http.StatusOK, msg, data)
}

// Error 构造一个指定错误码的错误响应。
func Error(code, msg string, statusCode int) *APIResponse {
	return New(code, statusCode, msg, nil)
}

// ParamError 构造一个参数错误响应。
func ParamError(msg string) *APIResponse {
	if msg == "" {
		msg = "参数错误"
	}
	return Error(CodeParamError, msg, http.StatusBadRequest)
}

// Unauthorized 构造一个未授权响应。
func Unauthorized(msg string) *APIResponse {
	if msg == "" {
		msg = "未授权访问"
	}
	return Error(CodeUnauthorized, msg, http.StatusUnauthorized)
}

// Forbidden 构造一个权限不足响应。
func Forbidden(msg string) *APIResponse {
	if msg == "" {
		msg = "权限不足"
	}
	return Error(CodeForbidden, msg, http.StatusForbidden)
}

// NotFound 构造一个资源不存在响应。
func NotFound(msg string) *APIResponse {
	if msg == "" {
		msg = "资源不存在"
	}
	return Error(CodeNotFound, msg, http.StatusNotFound)
}

// ServerError 构造一个服务器内部错误响应。
func ServerError() *APIResponse {
	return Error(CodeServerError, "服务器内部错误", http.StatusInternalServerError)
}

// BusinessError 是带有稳定错误码的业务错误。
// service 层返回它，handler 层将其翻译为对应的响应体；
// 其它未识别的错误一律翻译为 E00500。
type BusinessError struct {
	Code       string
	Msg        string
	StatusCode int
}

// Error 实现 error 接口。
func (e *BusinessError) Error() string {
	return e.Msg
}

// NewBusinessError 创建一个业务错误。
func NewBusinessError(code, msg string, statusCode int) *BusinessError {
	return &BusinessError{Code: code, Msg: msg, StatusCode: statusCode}
}

// FromError 将任意 error 翻译为响应体。
func FromError(err error) *APIResponse {
	var be *BusinessError
	if errors.As(err, &be) {
		return Error(be.Code, be.Msg, be.StatusCode)
	}
	return ServerError()
}
