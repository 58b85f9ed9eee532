package types

import (
	"fmt"
)

// Status is the result code of an invocation.
type Status int

const (
	StatusSuccess Status = iota
	StatusUnknownFailure
	StatusContractNotFound
	StatusMethodNotFound
	StatusMethodNotPayable
	StatusIllegalFormat
	StatusInvalidParameter
	StatusInvalidInstance
	StatusInvalidContainerAccess
	StatusAccessDenied
	StatusOutOfStep
	StatusOutOfBalance
	StatusTimeout
	StatusStackOverflow
	StatusSkipTransaction
	StatusPackageError
)

// User defined revert codes occupy [StatusUserReversionStart, StatusUserReversionEnd).
const (
	StatusUserReversionStart Status = 32
	StatusUserReversionEnd   Status = 1000
)

var statusNames = map[Status]string{
	StatusSuccess:                "Success",
	StatusUnknownFailure:         "UnknownFailure",
	StatusContractNotFound:       "ContractNotFound",
	StatusMethodNotFound:         "MethodNotFound",
	StatusMethodNotPayable:       "MethodNotPayable",
	StatusIllegalFormat:          "IllegalFormat",
	StatusInvalidParameter:       "InvalidParameter",
	StatusInvalidInstance:        "InvalidInstance",
	StatusInvalidContainerAccess: "InvalidContainerAccess",
	StatusAccessDenied:           "AccessDenied",
	StatusOutOfStep:              "OutOfStep",
	StatusOutOfBalance:           "OutOfBalance",
	StatusTimeout:                "Timeout",
	StatusStackOverflow:          "StackOverflow",
	StatusSkipTransaction:        "SkipTransaction",
	StatusPackageError:           "PackageError",
}

// UserRevert returns the status of user revert code c, clamped to the user
// range.
func UserRevert(c int) Status {
	s := StatusUserReversionStart + Status(c)
	if s < StatusUserReversionStart || s >= StatusUserReversionEnd {
		return StatusUserReversionEnd - 1
	}
	return s
}

func (s Status) IsUserRevert() bool {
	return s >= StatusUserReversionStart && s < StatusUserReversionEnd
}

// IsKnown reports a named status.
func (s Status) IsKnown() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	if s.IsUserRevert() {
		return fmt.Sprintf("UserReversion(%d)", int(s-StatusUserReversionStart))
	}
	return fmt.Sprintf("Status(%d)", int(s))
}
