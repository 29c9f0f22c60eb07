package rembg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/chaos-io/bgswap/util"
	nhttp "github.com/chaos-io/bgswap/util/http"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint 本地去背景服务
	DefaultEndpoint = "http://127.0.0.1:5000/remove-bg"

	uploadField           = "image"
	defaultFailureMessage = "Failed to remove background"
)

// RemoteRemover 通过 multipart 上传调用去背景服务
type RemoteRemover struct {
	endpoint string
	timeout  time.Duration
	cli      nhttp.IClient
}

func NewRemoteRemover(endpoint string, timeout time.Duration) *RemoteRemover {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &RemoteRemover{
		endpoint: endpoint,
		timeout:  timeout,
		cli:      nhttp.NewHTTPClientWithTimeout(timeout),
	}
}

// WithClient 替换底层 HTTP 客户端
func (r *RemoteRemover) WithClient(cli nhttp.IClient) *RemoteRemover {
	r.cli = cli
	return r
}

/*
	curl -X POST "$ENDPOINT" -F "image=@photo.jpg"
*/
func (r *RemoteRemover) Remove(ctx context.Context, src Source) (image.Image, error) {
	body, contentType, err := multipartBody(src)
	if err != nil {
		return nil, err
	}

	var raw []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: r.endpoint,
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": contentType},
		Body:       body,
		Response:   &raw,
		Timeout:    r.timeout,
	}
	err = r.cli.DoHTTPRequest(ctx, reqParam)
	if err != nil {
		var statusErr *nhttp.StatusError
		if errors.As(err, &statusErr) {
			return nil, &ServiceError{
				StatusCode: statusErr.StatusCode,
				Message:    serviceMessage(statusErr),
			}
		}
		return nil, &NetworkError{Err: err}
	}

	util.Logger.Debug("background removed",
		zap.String("name", src.Name),
		zap.Int("response_bytes", len(raw)))

	img, _, err := util.DecodeImage(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return img, nil
}

func multipartBody(src Source) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	name := src.Name
	if name == "" {
		name = "image"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadField, escapeQuotes(name)))
	if src.ContentType != "" {
		header.Set("Content-Type", src.ContentType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(src.Data); err != nil {
		return nil, "", fmt.Errorf("copy form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// serviceMessage 优先使用 JSON 响应中的 error 字段
//
//	body 不是 JSON 或为 null        → Server error (<status>)
//	非对象，或 error 缺失/为空/为 0/false → Failed to remove background
//	其余 error 值转成文本
func serviceMessage(statusErr *nhttp.StatusError) string {
	var payload interface{}
	if err := json.Unmarshal(statusErr.Body, &payload); err != nil || payload == nil {
		return fmt.Sprintf("Server error (%d)", statusErr.StatusCode)
	}

	obj, ok := payload.(map[string]interface{})
	if !ok {
		return defaultFailureMessage
	}

	switch v := obj["error"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		if v != 0 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	case bool:
		if v {
			return "true"
		}
	case nil:
	default:
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
	}
	return defaultFailureMessage
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
