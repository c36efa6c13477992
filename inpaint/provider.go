package inpaint

import "context"

// Request 一次远端修补调用的载荷
// AcceptsMask 为 false 的提供方不会收到 Mask
type Request struct {
	Image  []byte
	Mask   []byte
	Prompt string
}

// Provider 远端修补模型的同步调用边界
// 提交后的轮询由各 Provider 的客户端自己负责，对上层表现为一次阻塞调用
type Provider interface {
	Name() string
	AcceptsMask() bool
	Submit(ctx context.Context, req *Request) ([]byte, error)
}
