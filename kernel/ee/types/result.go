package types

import (
	"fmt"
	"math/big"
)

// Invoke options.
const (
	OptionReadOnly = 1
	OptionTrace    = 2
)

// LogLevel of a LOG message, from panic to trace.
type LogLevel int

const (
	LogPanic LogLevel = iota
	LogFatal
	LogError
	LogWarn
	LogInfo
	LogDebug
	LogTrace
)

// Log message flags.
const (
	LogFlagTrace = 1
)

// Result is the outcome of an invocation as carried by a RESULT message.
type Result struct {
	Status   Status
	StepUsed *big.Int
	Ret      interface{}
	EID      int
	PrevEID  int
}

func (r *Result) String() string {
	return fmt.Sprintf("Result{status=%s step=%s ret=%v eid=%d prev=%d}",
		r.Status, r.StepUsed, r.Ret, r.EID, r.PrevEID)
}
