package metrics

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "xee"

	SubsystemIPC    = "ipc"
	SubsystemInvoke = "invoke"
	SubsystemState  = "state"

	LabelMessageType = "message"
	LabelStatus      = "status"
	LabelOption      = "option"
	LabelCache       = "cache"

	// LabelOther replaces label values outside a known set.
	LabelOther = "other"
)

// ipc
var (
	IPCMsgSendCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemIPC,
			Name:      "msg_send_total",
			Help:      "Total number of messages sent to host.",
		},
		[]string{LabelMessageType})
	IPCMsgSendBytesCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemIPC,
			Name:      "msg_send_bytes",
			Help:      "Total size of messages sent to host.",
		},
		[]string{LabelMessageType})
	IPCMsgReceivedCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemIPC,
			Name:      "msg_received_total",
			Help:      "Total number of messages received from host.",
		},
		[]string{LabelMessageType})
	IPCMsgReceivedBytesCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemIPC,
			Name:      "msg_received_bytes",
			Help:      "Total size of messages received from host.",
		},
		[]string{LabelMessageType})
	// 未确认的set value请求
	IPCPendingCallbackGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemIPC,
			Name:      "pending_callbacks",
			Help:      "Number of set value requests waiting for acknowledgement.",
		})
)

// invoke
var (
	InvokeCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemInvoke,
			Name:      "invoke_total",
			Help:      "Total number of dispatched invokes.",
		},
		[]string{LabelOption, LabelStatus})
	InvokeHistogram = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemInvoke,
			Name:      "invoke_seconds",
			Help:      "Histogram of invoke dispatch latency.",
			Buckets:   prom.DefBuckets,
		},
		[]string{LabelOption})
)

// state
var (
	GraphCacheCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemState,
			Name:      "graph_cache_total",
			Help:      "Object graph cache lookups by result.",
		},
		[]string{LabelCache})
)

var registerOnce sync.Once

// RegisterMetrics registers all collectors with the default registry. It is
// safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		// ipc
		prom.MustRegister(IPCMsgSendCounter)
		prom.MustRegister(IPCMsgSendBytesCounter)
		prom.MustRegister(IPCMsgReceivedCounter)
		prom.MustRegister(IPCMsgReceivedBytesCounter)
		prom.MustRegister(IPCPendingCallbackGauge)
		// invoke
		prom.MustRegister(InvokeCounter)
		prom.MustRegister(InvokeHistogram)
		// state
		prom.MustRegister(GraphCacheCounter)
	})
}
