package domain

import "errors"

// Validation errors are detected locally and rejected before any
// collaborator call; collaborator errors are wrapped with %w so the
// original message survives to the caller.
var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrCheckoutNotStarted  = errors.New("checkout not started")
	ErrCommitInFlight      = errors.New("commit already in progress")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrNotPermitted        = errors.New("not permitted")
	ErrNotFound            = errors.New("not found")
	ErrInvalidItem         = errors.New("invalid item")
)
