package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrStudentNotFound      = errors.New("student not found")
	ErrFeeStructureNotFound = errors.New("no fee structure found for student")
	ErrFeeRecordNotFound    = errors.New("fee record not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInvalidAmount        = errors.New("payment amount must be greater than zero")
	ErrInvalidPaymentType   = errors.New("invalid payment type")
	ErrInvalidTerm          = errors.New("termNumber must be 1, 2 or 3 for term payments")
)

// NotAllocatedError is returned for students without a route or boarding stop.
type NotAllocatedError struct {
	StudentID       string
	HasRoute        bool
	HasBoardingStop bool
}

func (e *NotAllocatedError) Error() string {
	return fmt.Sprintf("student %s is not allocated to a route (route=%t, boarding_stop=%t)", e.StudentID, e.HasRoute, e.HasBoardingStop)
}

// EligibilityError carries the reason a payment would duplicate existing coverage.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string {
	return e.Reason
}
