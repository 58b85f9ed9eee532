package eeproxy

import (
	"strconv"

	"github.com/pkg/errors"
)

// ProtocolVersion is announced in the VERSION handshake.
const ProtocolVersion = 1

// Message types.
const (
	MsgVersion = iota
	MsgInvoke
	MsgResult
	MsgGetValue
	MsgSetValue
	MsgCall
	MsgEvent
	MsgGetInfo
	MsgGetBalance
	MsgGetAPI
	MsgLog
	MsgClose
	MsgSetCode
	MsgGetObjGraph
	MsgSetObjGraph
	MsgSetFeePct
)

// SetValue flags.
const (
	SetValueDelete   = 1
	SetValueOldValue = 2
)

const DefaultMaxPendingCallbacks = 32

const DefaultEngineType = "java"

var msgNames = map[int]string{
	MsgVersion:     "VERSION",
	MsgInvoke:      "INVOKE",
	MsgResult:      "RESULT",
	MsgGetValue:    "GETVALUE",
	MsgSetValue:    "SETVALUE",
	MsgCall:        "CALL",
	MsgEvent:       "EVENT",
	MsgGetInfo:     "GETINFO",
	MsgGetBalance:  "GETBALANCE",
	MsgGetAPI:      "GETAPI",
	MsgLog:         "LOG",
	MsgClose:       "CLOSE",
	MsgSetCode:     "SETCODE",
	MsgGetObjGraph: "GETOBJGRAPH",
	MsgSetObjGraph: "SETOBJGRAPH",
	MsgSetFeePct:   "SETFEEPCT",
}

// MsgName returns the log name of a message type.
func MsgName(t int) string {
	if name, ok := msgNames[t]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(t) + ")"
}

var (
	// ErrUnexpectedMessage is fatal for the channel: the reply did not match
	// the outstanding request.
	ErrUnexpectedMessage = errors.New("eeproxy: unexpected message")
	ErrClosedDuringCall  = errors.New("eeproxy: channel closed during call")
	ErrPendingCallbacks  = errors.New("eeproxy: pending callbacks")
	ErrNoHandler         = errors.New("eeproxy: no handler")
	ErrNoResult          = errors.New("eeproxy: invoke handler returned no result")

	// Errors a GetAPIHandler reports to select the reply status.
	ErrPackage    = errors.New("eeproxy: bad package")
	ErrValidation = errors.New("eeproxy: validation failed")
)
