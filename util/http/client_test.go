package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient()
	assert.NotNil(t, client)

	httpClient, ok := client.(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, httpClient.client.Timeout)

	custom, ok := NewHTTPClientWithTimeout(5 * time.Second).(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, custom.client.Timeout)

	fallback, ok := NewHTTPClientWithTimeout(0).(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, fallback.client.Timeout)
}

func TestHTTPClient_DoHTTPRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		requestParam *RequestParam
		handler      http.HandlerFunc
		wantErr      bool
		wantErrMsg   string
	}{
		{
			name:         "成功的GET请求",
			requestParam: &RequestParam{Method: http.MethodGet},
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				_, _ = w.Write([]byte(`{"message": "success"}`))
			},
		},
		{
			name: "POST请求带JSON body",
			requestParam: &RequestParam{
				Method: http.MethodPost,
				Body:   map[string]interface{}{"key": "value"},
				Header: map[string]string{"Content-Type": "application/json"},
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var data map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&data))
				assert.Equal(t, "value", data["key"])
				_, _ = w.Write([]byte(`{"received": true}`))
			},
		},
		{
			name: "POST请求带io.Reader body",
			requestParam: &RequestParam{
				Method: http.MethodPost,
				Body:   strings.NewReader(`{"reader": "body"}`),
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Equal(t, `{"reader": "body"}`, string(body))
			},
		},
		{
			name:         "服务器返回错误状态码",
			requestParam: &RequestParam{Method: http.MethodGet},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error": "server error"}`))
			},
			wantErr:    true,
			wantErrMsg: "HTTP request failed with status 500",
		},
		{
			name: "请求超时",
			requestParam: &RequestParam{
				Method:  http.MethodGet,
				Timeout: 100 * time.Millisecond,
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
			},
			wantErr:    true,
			wantErrMsg: "context deadline exceeded",
		},
		{
			name:       "请求参数为nil",
			wantErr:    true,
			wantErrMsg: "request param is nil",
		},
		{
			name: "无效的URL",
			requestParam: &RequestParam{
				Method:     http.MethodGet,
				RequestURI: "://invalid-url",
			},
			wantErr:    true,
			wantErrMsg: "missing protocol scheme",
		},
		{
			name: "JSON序列化失败",
			requestParam: &RequestParam{
				Method: http.MethodPost,
				Body:   make(chan int),
			},
			wantErr:    true,
			wantErrMsg: "json: unsupported type: chan int",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := tt.handler
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {}
			}
			server := httptest.NewServer(handler)
			defer server.Close()

			if tt.requestParam != nil && tt.requestParam.RequestURI == "" {
				tt.requestParam.RequestURI = server.URL
			}

			err := NewHTTPClient().DoHTTPRequest(context.Background(), tt.requestParam)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHTTPClient_DoHTTPRequest_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := NewHTTPClient().DoHTTPRequest(ctx, &RequestParam{
		Method:     http.MethodGet,
		RequestURI: server.URL,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestHTTPClient_DoHTTPRequest_RawResponse(t *testing.T) {
	t.Parallel()

	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	var raw []byte
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		Method:     http.MethodPost,
		RequestURI: server.URL,
		Body:       []byte("ignored"),
		Response:   &raw,
	})
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestHTTPClient_DoHTTPRequest_ErrorStatusCodes(t *testing.T) {
	t.Parallel()

	for _, statusCode := range []int{400, 401, 403, 404, 500, 502, 503} {
		statusCode := statusCode
		t.Run(http.StatusText(statusCode), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(statusCode)
				_, _ = w.Write([]byte("Error message"))
			}))
			defer server.Close()

			err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
				Method:     http.MethodGet,
				RequestURI: server.URL,
			})
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, statusCode, statusErr.StatusCode)
			assert.Equal(t, "Error message", string(statusErr.Body))
			assert.Contains(t, err.Error(), "HTTP request failed with status")
		})
	}
}

func TestHTTPClient_DoHTTPRequest_DifferentHTTPMethods(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"GET", "POST", "PUT", "DELETE", "PATCH"} {
		method := method
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, method, r.Method)
				_, _ = w.Write([]byte(`{"method": "` + method + `"}`))
			}))
			defer server.Close()

			var response map[string]interface{}
			err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
				Method:     method,
				RequestURI: server.URL,
				Response:   &response,
			})
			assert.NoError(t, err)
			assert.Equal(t, method, response["method"])
		})
	}
}
