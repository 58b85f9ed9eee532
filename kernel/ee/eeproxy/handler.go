package eeproxy

import (
	"context"
	"math/big"

	"github.com/xuperchain/eeproxy/kernel/common/xcontext"
	"github.com/xuperchain/eeproxy/kernel/ee/codec"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
)

// InvokeRequest is the decoded payload of an INVOKE message.
type InvokeRequest struct {
	Code       string
	Option     int
	From       *types.Address
	To         *types.Address
	Value      *big.Int
	Limit      *big.Int
	Method     string
	Params     []interface{}
	Info       *codec.OrderedMap
	TypedInfo  *types.Info
	ContractID []byte
	EID        int
	NextHash   int
	GraphHash  []byte
	PrevEID    int
}

func (r *InvokeRequest) IsReadOnly() bool {
	return r.Option&types.OptionReadOnly != 0
}

func (r *InvokeRequest) IsTrace() bool {
	return r.Option&types.OptionTrace != 0
}

// InvokeResult is sent back as RESULT [status, stepUsed, result].
type InvokeResult struct {
	Status   types.Status
	StepUsed *big.Int
	Result   interface{}
}

// InvokeHandler executes an invocation. The context carries the proxy, see
// FromContext, and the logger and timer of the invocation. A returned error is fatal for the channel; contract failures
// are reported through InvokeResult.Status.
type InvokeHandler interface {
	Invoke(ctx xcontext.XContext, req *InvokeRequest) (*InvokeResult, error)
}

type InvokeHandlerFunc func(ctx xcontext.XContext, req *InvokeRequest) (*InvokeResult, error)

func (f InvokeHandlerFunc) Invoke(ctx xcontext.XContext, req *InvokeRequest) (*InvokeResult, error) {
	return f(ctx, req)
}

// GetAPIHandler returns the methods exposed by the package at path. Errors
// wrapping ErrPackage or ErrValidation are answered with PackageError and
// IllegalFormat, anything else is fatal.
type GetAPIHandler interface {
	GetAPI(ctx xcontext.XContext, path string) ([]*types.Method, error)
}

type GetAPIHandlerFunc func(ctx xcontext.XContext, path string) ([]*types.Method, error)

func (f GetAPIHandlerFunc) GetAPI(ctx xcontext.XContext, path string) ([]*types.Method, error) {
	return f(ctx, path)
}

type proxyKey struct{}

// WithProxy returns a context carrying p.
func WithProxy(ctx context.Context, p *EEProxy) context.Context {
	return context.WithValue(ctx, proxyKey{}, p)
}

// FromContext returns the proxy serving the current invocation.
func FromContext(ctx context.Context) (*EEProxy, bool) {
	p, ok := ctx.Value(proxyKey{}).(*EEProxy)
	return p, ok
}
