package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	// ErrNotFound covers both "no such id" and "id owned by another
	// tenant" so existence is never leaked across tenants.
	ErrNotFound = errors.New("resource not found")
)

// AccessDeniedError is returned when a loaded resource carries a tenant key
// different from the scope it is being mutated through.
type AccessDeniedError struct {
	TenantKey string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("tenant %q does not own this resource", e.TenantKey)
}

// UnknownTypeError is returned when a resource type has no registered definition.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("resource type %q is not registered", e.Name)
}

// InvalidTransitionError is returned when a status change is not present in
// the resource type's transition table.
type InvalidTransitionError struct {
	Type ResourceType
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: transition %q -> %q is not allowed", e.Type, e.From, e.To)
}

// InsufficientFundsError is returned when a deduction or transfer exceeds the
// wallet's current balance.
type InsufficientFundsError struct {
	Balance   int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, requested %d", e.Balance, e.Requested)
}

// InvalidTransferError is returned for transfers that can never be legal,
// such as a wallet transferring to itself or across tenants.
type InvalidTransferError struct {
	Reason string
}

func (e *InvalidTransferError) Error() string {
	return fmt.Sprintf("invalid transfer: %s", e.Reason)
}

// ValidationError is returned when input is structurally invalid in a way the
// upstream validation layer should have caught but this core still defends
// against (e.g., a non-positive amount).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
