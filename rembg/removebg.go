package rembg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"time"

	nhttp "github.com/chaos-io/bgswap/util/http"
)

const (
	RemoveBGAPIURL  = "https://api.remove.bg/v1.0/removebg"
	removeBGTimeout = 30 * time.Second
)

// RemoveBGClient remove.bg v1 接口
type RemoveBGClient struct {
	apiURL  string
	apiKey  string
	timeout time.Duration
	cli     nhttp.IClient
}

func NewRemoveBGClient(apiURL, apiKey string, timeout time.Duration) *RemoveBGClient {
	if apiURL == "" {
		apiURL = RemoveBGAPIURL
	}
	if timeout <= 0 {
		timeout = removeBGTimeout
	}
	return &RemoveBGClient{
		apiURL:  apiURL,
		apiKey:  apiKey,
		timeout: timeout,
		cli:     nhttp.NewHTTPClientWithTimeout(timeout),
	}
}

// Configured 是否已配置 API key
func (c *RemoveBGClient) Configured() bool {
	return c.apiKey != ""
}

// Cutout 返回去背景后的 PNG 字节，非 2xx 时返回 *nhttp.StatusError
//
/*
	curl -H "X-Api-Key: $KEY" \
	  -F "image_file=@photo.jpg" \
	  -F "size=auto" \
	  https://api.remove.bg/v1.0/removebg -o no-bg.png
*/
func (c *RemoveBGClient) Cutout(ctx context.Context, src Source) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image_file"; filename="%s"`, escapeQuotes(src.Name)))
	if src.ContentType != "" {
		header.Set("Content-Type", src.ContentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(src.Data); err != nil {
		return nil, fmt.Errorf("copy form file: %w", err)
	}
	_ = writer.WriteField("size", "auto")
	_ = writer.Close()

	var raw []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: c.apiURL,
		Method:     http.MethodPost,
		Header: map[string]string{
			"Content-Type": writer.FormDataContentType(),
			"X-Api-Key":    c.apiKey,
		},
		Body:     body,
		Response: &raw,
		Timeout:  c.timeout,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, err
	}
	return raw, nil
}

// IsTimeout 请求是否因超时失败
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
