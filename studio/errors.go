package studio

import "errors"

const invalidImageMessage = "Please upload a valid image file (JPG, PNG, WEBP)"

// ValidationError 输入不是图片
type ValidationError struct {
	ContentType string
}

func (e *ValidationError) Error() string {
	return invalidImageMessage
}

// ErrSuperseded 请求被更新的上传或 Reset 取代，结果已丢弃
var ErrSuperseded = errors.New("upload superseded by a newer one")
