// 定义公共上下文结构，明确定义上下文结构，方便代码阅读
package xcontext

import (
	"context"

	"github.com/xuperchain/eeproxy/lib/logs"
	"github.com/xuperchain/eeproxy/lib/timer"
)

// XContext is the context of one operation: the request context plus the
// logger and timer of the operation.
type XContext interface {
	context.Context
	GetLog() logs.Logger
	GetTimer() *timer.XTimer
}

type BaseCtx struct {
	context.Context
	XLog  logs.Logger
	Timer *timer.XTimer
}

// NewBaseCtx starts an operation under parent. A nil xlog discards logs.
func NewBaseCtx(parent context.Context, xlog logs.Logger) *BaseCtx {
	if parent == nil {
		parent = context.Background()
	}
	if xlog == nil {
		xlog = logs.NewDiscardLogger()
	}
	return &BaseCtx{
		Context: parent,
		XLog:    xlog,
		Timer:   timer.NewXTimer(),
	}
}

func (t *BaseCtx) GetLog() logs.Logger {
	return t.XLog
}

func (t *BaseCtx) GetTimer() *timer.XTimer {
	return t.Timer
}

func (t *BaseCtx) IsVaild() bool {
	return t.Context != nil && t.XLog != nil && t.Timer != nil
}
