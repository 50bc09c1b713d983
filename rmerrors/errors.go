// Package rmerrors defines the sentinel error kinds shared by storage,
// buffer, recordmgr, and expr. Callers compare with errors.Is; every
// layer wraps these with github.com/pkg/errors so the message stays
// annotated while errors.Cause still unwraps to the sentinel.
package rmerrors

import "github.com/pkg/errors"

// Block storage errors.
var (
	ErrFileNotFound        = errors.New("file not found")
	ErrWriteFailed         = errors.New("write failed")
	ErrReadNonExistingPage = errors.New("read of non-existing page")
)

// Buffer pool errors.
var (
	ErrFileHandleNotInit = errors.New("file handle not initialized")
	ErrNoFreeBufferSlot  = errors.New("no free buffer slot")
	ErrPageNotInBuffer   = errors.New("page not in buffer")
	ErrInvalidUnpin      = errors.New("invalid unpin")
)

// Allocation / record manager errors.
var (
	ErrMemAllocFailed    = errors.New("memory allocation failed")
	ErrInvalidRecordSize = errors.New("record size does not fit a single slot")
	ErrOutOfSpace        = errors.New("out of space")
)

// Expression evaluator errors.
var (
	ErrCompareDifferentTypes = errors.New("compared values of different datatypes")
	ErrExprNotBoolean        = errors.New("expression result is not boolean")
	ErrBooleanExprArgNotBool = errors.New("boolean expression argument is not boolean")
	ErrUnknownOperator       = errors.New("unknown operator")
	ErrInvalidAttribute      = errors.New("invalid attribute index")
	ErrTypeMismatch          = errors.New("value datatype does not match attribute datatype")
)

// Scan / lookup terminators.
var (
	ErrNoMoreTuples  = errors.New("no more tuples")
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidSlot   = errors.New("invalid slot")
)
