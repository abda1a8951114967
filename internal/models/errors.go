package models

import "errors"

// Precondition errors
var (
	ErrNotAMaster       = errors.New("account is not a master")
	ErrAlreadyMaster    = errors.New("account is already a master")
	ErrNoCategories     = errors.New("no categories exist")
	ErrAccountNotFound  = errors.New("account not found")
	ErrMasterNotFound   = errors.New("master profile not found")
	ErrWorkNotFound     = errors.New("work not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category is referenced by works")
	ErrForbidden        = errors.New("action not allowed")
)

// Transition errors
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvoiceMismatch   = errors.New("invoice does not match the pending registration")
)

// Input errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnexpectedInput = errors.New("input does not match the current step")
)

// External dependency errors
var (
	ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable")
)
