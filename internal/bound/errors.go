package bound

import (
	"errors"
	"fmt"
)

// ContractError reports a node constructed in violation of its contract:
// an access mode illegal for the kind, a missing required child, a child
// already owned by another node, or a malformed operator or increment kind.
//
// These are programming errors in the binder, not user diagnostics.
type ContractError struct {
	Kind    Kind
	Message string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: contract violation: %s", e.Kind, e.Message)
}

func contractf(k Kind, format string, args ...any) *ContractError {
	return &ContractError{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a slot update that contradicts the value already
// stored. It indicates a resolution-phase ordering bug.
type ConflictError struct {
	Kind     Kind
	Slot     string
	Existing any
	Proposed any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s already resolved to %v, cannot resolve to %v",
		e.Kind, e.Slot, e.Existing, e.Proposed)
}

// UnsupportedNodeError reports a node that no visitor method handles.
type UnsupportedNodeError struct {
	Node Node
}

func (e *UnsupportedNodeError) Error() string {
	if e.Node == nil {
		return "unsupported node: <nil>"
	}
	return fmt.Sprintf("unsupported node: %T", e.Node)
}

// IsContractError returns true if err is or wraps a *ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// IsConflictError returns true if err is or wraps a *ConflictError.
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
