package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
)

// InsufficientStockError reports a deduction line that asks for more than a
// batch holds. It matches ErrConflict.
type InsufficientStockError struct {
	BatchID   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in batch %s: requested %d, available %d", e.BatchID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrConflict }

// PartialDeductionError is returned when a deduction failed after some batches
// were already written. Those batches need manual reconciliation.
type PartialDeductionError struct {
	AppliedBatchIDs []string
	Err             error
}

func (e *PartialDeductionError) Error() string {
	return fmt.Sprintf("stock deduction stopped after batches [%s]: %v", strings.Join(e.AppliedBatchIDs, ", "), e.Err)
}

func (e *PartialDeductionError) Unwrap() []error { return []error{ErrUpstream, e.Err} }
