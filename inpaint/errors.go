package inpaint

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput 空物体列表等调用方输入错误
	ErrInvalidInput = errors.New("inpaint: invalid input")

	// ErrMissingCredential 调用时没有可用的 API key
	ErrMissingCredential = errors.New("inpaint: missing credential")
)

// ProviderError 远端修补调用失败的统一包装：提交失败、无可用结果、下载失败
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
