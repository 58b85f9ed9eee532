package eeproxy

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/xuperchain/eeproxy/kernel/common/xcontext"
	"github.com/xuperchain/eeproxy/kernel/ee/codec"
	"github.com/xuperchain/eeproxy/kernel/ee/ipc"
	"github.com/xuperchain/eeproxy/kernel/ee/typedobj"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
	"github.com/xuperchain/eeproxy/lib/metrics"
)

const invokeFields = 12

// HandleMessages serves GETAPI and INVOKE requests until the host sends
// CLOSE or RESULT.
func (p *EEProxy) HandleMessages(ctx context.Context) error {
	_, _, err := p.handleMessages(ctx)
	return err
}

// handleMessages returns the RESULT payload, or ok=false on CLOSE.
func (p *EEProxy) handleMessages(ctx context.Context) (interface{}, bool, error) {
	ctx = WithProxy(ctx, p)
	for {
		msg, err := p.proxy.GetNextMessage()
		if err != nil {
			return nil, false, err
		}
		switch msg.Type {
		case MsgGetAPI:
			if err := p.handleGetAPI(ctx, msg.Value); err != nil {
				return nil, false, err
			}
		case MsgInvoke:
			if err := p.handleInvoke(ctx, msg.Value); err != nil {
				return nil, false, err
			}
		case MsgResult:
			p.log.Trace("[RESULT]")
			return msg.Value, true, nil
		case MsgClose:
			p.log.Trace("[CLOSE]")
			return nil, false, nil
		default:
			p.log.Debug("ignore message", "type", MsgName(msg.Type))
		}
	}
}

func (p *EEProxy) handleGetAPI(ctx context.Context, v interface{}) error {
	path, err := ipc.AsString(v)
	if err != nil {
		return errors.WithMessage(err, "GETAPI path")
	}
	p.log.Trace("[GETAPI]", "path", path)
	if p.apiHandler == nil {
		return errors.Wrap(ErrNoHandler, "getAPI")
	}

	methods, err := p.apiHandler.GetAPI(xcontext.NewBaseCtx(ctx, p.log), path)
	switch {
	case err == nil:
		if methods == nil {
			methods = []*types.Method{}
		}
		return p.proxy.SendMessage(MsgGetAPI, types.StatusSuccess, methods)
	case errors.Is(err, ErrPackage):
		p.log.Warn("getAPI failed", "path", path, "err", err)
		return p.proxy.SendMessage(MsgGetAPI, types.StatusPackageError, nil)
	case errors.Is(err, ErrValidation):
		p.log.Warn("getAPI failed", "path", path, "err", err)
		return p.proxy.SendMessage(MsgGetAPI, types.StatusIllegalFormat, nil)
	}
	return err
}

func (p *EEProxy) handleInvoke(ctx context.Context, v interface{}) error {
	p.log.Trace("[INVOKE]")
	req, err := p.decodeInvoke(v)
	if err != nil {
		p.log.Warn("decode invoke failed", "err", err)
		return p.proxy.SendMessage(MsgResult, types.StatusUnknownFailure, big.NewInt(0),
			typedobj.MustEncode("invoke decode error: "+err.Error()))
	}
	if p.invokeHandler == nil {
		return errors.Wrap(ErrNoHandler, "invoke")
	}

	oldTrace := p.trace
	p.trace = req.IsTrace()
	defer func() {
		p.trace = oldTrace
	}()

	xctx := xcontext.NewBaseCtx(ctx, p.log)
	option := optionLabel(req)
	res, err := p.invokeHandler.Invoke(xctx, req)
	if err == nil && res == nil {
		err = errors.Wrapf(ErrNoResult, "method %s", req.Method)
	}
	if err != nil {
		metrics.InvokeCounter.WithLabelValues(option, "error").Inc()
		return err
	}
	xt := xctx.GetTimer()
	xt.Mark("invoke")
	metrics.InvokeHistogram.WithLabelValues(option).Observe(xt.Elapsed().Seconds())
	metrics.InvokeCounter.WithLabelValues(option, statusLabel(res.Status)).Inc()

	ret, err := typedobj.Encode(res.Result)
	if err != nil {
		p.log.Warn("encode invoke result failed", "method", req.Method, "err", err)
		return p.proxy.SendMessage(MsgResult, types.StatusUnknownFailure, res.stepUsed(),
			typedobj.MustEncode("invoke result encode error: "+err.Error()))
	}
	p.log.Trace("[INVOKE] done", "method", req.Method, "status", res.Status, "step", res.stepUsed(),
		"timer", xt.Print())
	return p.proxy.SendMessage(MsgResult, res.Status, res.stepUsed(), ret)
}

func (r *InvokeResult) stepUsed() *big.Int {
	if r.StepUsed == nil {
		return big.NewInt(0)
	}
	return r.StepUsed
}

// decodeInvoke decodes [code, option, from, to, value, limit, method,
// params, info, contractID, eid, state]. state is [nextHash, graphHash,
// prevEID] or any non array value.
func (p *EEProxy) decodeInvoke(v interface{}) (*InvokeRequest, error) {
	arr, err := ipc.AsArrayN(v, invokeFields)
	if err != nil {
		return nil, err
	}
	req := new(InvokeRequest)
	if req.Code, err = ipc.AsString(arr[0]); err != nil {
		return nil, errors.WithMessage(err, "code")
	}
	if req.Option, err = ipc.AsInt(arr[1]); err != nil {
		return nil, errors.WithMessage(err, "option")
	}
	if req.From, err = ipc.AsAddress(arr[2]); err != nil {
		return nil, errors.WithMessage(err, "from")
	}
	if req.To, err = ipc.AsAddress(arr[3]); err != nil {
		return nil, errors.WithMessage(err, "to")
	}
	if req.Value, err = ipc.AsBigInt(arr[4]); err != nil {
		return nil, errors.WithMessage(err, "value")
	}
	if req.Limit, err = ipc.AsBigInt(arr[5]); err != nil {
		return nil, errors.WithMessage(err, "limit")
	}
	if req.Method, err = ipc.AsString(arr[6]); err != nil {
		return nil, errors.WithMessage(err, "method")
	}

	params, err := typedobj.DecodeAny(arr[7])
	if err != nil {
		return nil, errors.WithMessage(err, "params")
	}
	if params != nil {
		if req.Params, err = ipc.AsArray(params); err != nil {
			return nil, errors.WithMessage(err, "params")
		}
	}

	info, err := typedobj.DecodeAny(arr[8])
	if err != nil {
		return nil, errors.WithMessage(err, "info")
	}
	if info != nil {
		m, ok := info.(*codec.OrderedMap)
		if !ok {
			return nil, errors.Wrapf(ipc.ErrCast, "info %T", info)
		}
		req.Info = m
		if req.TypedInfo, err = types.DecodeInfo(m.StringMap()); err != nil {
			p.log.Warn("decode invoke info failed", "err", err)
		}
	}

	if req.ContractID, err = ipc.AsBytes(arr[9]); err != nil {
		return nil, errors.WithMessage(err, "contractID")
	}
	if req.EID, err = ipc.AsInt(arr[10]); err != nil {
		return nil, errors.WithMessage(err, "eid")
	}
	if state, ok := arr[11].([]interface{}); ok {
		if len(state) < 3 {
			return nil, errors.Wrapf(ipc.ErrCast, "state of %d elements", len(state))
		}
		if req.NextHash, err = ipc.AsInt(state[0]); err != nil {
			return nil, errors.WithMessage(err, "nextHash")
		}
		if req.GraphHash, err = ipc.AsBytes(state[1]); err != nil {
			return nil, errors.WithMessage(err, "graphHash")
		}
		if req.PrevEID, err = ipc.AsInt(state[2]); err != nil {
			return nil, errors.WithMessage(err, "prevEID")
		}
	}
	return req, nil
}

// Call invokes another contract from inside an invocation. It sends CALL and
// serves nested requests until the host answers with RESULT.
func (p *EEProxy) Call(ctx context.Context, addr *types.Address, value *big.Int, stepLimit int64,
	dataType string, dataObj interface{}) (*types.Result, error) {
	data, err := typedobj.Encode(dataObj)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = big.NewInt(0)
	}
	p.log.Trace("[CALL]", "to", addr, "value", value, "limit", stepLimit, "dataType", dataType)
	if err := p.proxy.SendMessage(MsgCall, addr, value, big.NewInt(stepLimit), dataType, data); err != nil {
		return nil, err
	}

	raw, ok, err := p.handleMessages(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrClosedDuringCall
	}
	res, err := decodeCallResult(raw)
	if err != nil {
		return nil, errors.WithMessage(err, "CALL result")
	}
	p.log.Trace("[CALL] done", "result", res)
	return res, nil
}

// decodeCallResult decodes [status, stepUsed, result, eid, prevEID].
func decodeCallResult(v interface{}) (*types.Result, error) {
	arr, err := ipc.AsArrayN(v, 5)
	if err != nil {
		return nil, err
	}
	res := new(types.Result)
	status, err := ipc.AsInt(arr[0])
	if err != nil {
		return nil, errors.WithMessage(err, "status")
	}
	res.Status = types.Status(status)
	if res.StepUsed, err = ipc.AsBigInt(arr[1]); err != nil {
		return nil, errors.WithMessage(err, "stepUsed")
	}
	if res.Ret, err = typedobj.DecodeAny(arr[2]); err != nil {
		return nil, errors.WithMessage(err, "result")
	}
	if res.EID, err = ipc.AsInt(arr[3]); err != nil {
		return nil, errors.WithMessage(err, "eid")
	}
	if res.PrevEID, err = ipc.AsInt(arr[4]); err != nil {
		return nil, errors.WithMessage(err, "prevEID")
	}
	return res, nil
}

func statusLabel(s types.Status) string {
	if s.IsUserRevert() {
		return "revert"
	}
	if !s.IsKnown() {
		return metrics.LabelOther
	}
	return s.String()
}

func optionLabel(req *InvokeRequest) string {
	if req.IsReadOnly() {
		return "readonly"
	}
	return "write"
}
