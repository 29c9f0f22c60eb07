package http

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -destination=mocks/http.go -package=mocks . IClient
type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

// RequestParam 描述一次请求
//
// Body 为 io.Reader / []byte 时原样发送，其余类型按 JSON 序列化。
// Response 为 *[]byte 时写入原始响应体，其余非 nil 值按 JSON 反序列化。
type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Body       interface{}
	Response   interface{}

	Timeout time.Duration
}

// StatusError 非 2xx 响应
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP request failed with status %d: %s", e.StatusCode, string(e.Body))
}
