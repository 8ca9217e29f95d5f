package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeValidationStartDate    ErrorCode = "VALIDATION_START_DATE"
	ErrorCodeValidationMenu         ErrorCode = "VALIDATION_MENU"

	// Not Found Errors (*_NOT_FOUND)
	ErrorCodeMealPlanNotFound     ErrorCode = "MEAL_PLAN_NOT_FOUND"
	ErrorCodeSubscriptionNotFound ErrorCode = "SUBSCRIPTION_NOT_FOUND"
	ErrorCodeOrderNotFound        ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrorCodeRestaurantNotFound   ErrorCode = "RESTAURANT_NOT_FOUND"
	ErrorCodeCustomerNotFound     ErrorCode = "CUSTOMER_NOT_FOUND"

	// Conflict Errors (CONFLICT_*)
	ErrorCodePlanInactive       ErrorCode = "CONFLICT_PLAN_INACTIVE"
	ErrorCodePlanFull           ErrorCode = "CONFLICT_PLAN_FULL"
	ErrorCodePlanOwnerMismatch  ErrorCode = "CONFLICT_PLAN_OWNER_MISMATCH"
	ErrorCodeNotOwner           ErrorCode = "CONFLICT_NOT_OWNER"
	ErrorCodeAlreadyCancelled   ErrorCode = "CONFLICT_ALREADY_CANCELLED"
	ErrorCodeStaleState         ErrorCode = "CONFLICT_STALE_STATE"
	ErrorCodeInvalidTransition  ErrorCode = "CONFLICT_INVALID_TRANSITION"
	ErrorCodeSweepInProgress    ErrorCode = "CONFLICT_SWEEP_IN_PROGRESS"
	ErrorCodeDuplicateOrderSlot ErrorCode = "CONFLICT_DUPLICATE_ORDER_SLOT"

	// Dependency Errors (DEPENDENCY_*)
	ErrorCodeNotificationFailed ErrorCode = "DEPENDENCY_NOTIFICATION_FAILED"
	ErrorCodeEmailFailed        ErrorCode = "DEPENDENCY_EMAIL_FAILED"
	ErrorCodePushFailed         ErrorCode = "DEPENDENCY_PUSH_FAILED"
	ErrorCodeLockUnavailable    ErrorCode = "DEPENDENCY_LOCK_UNAVAILABLE"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsValidationError reports malformed input
func IsValidationError(err error) bool {
	return strings.HasPrefix(string(GetErrorCode(err)), "VALIDATION_")
}

// IsNotFoundError reports a missing entity
func IsNotFoundError(err error) bool {
	return strings.HasSuffix(string(GetErrorCode(err)), "_NOT_FOUND")
}

// IsConflictError reports a state conflict (capacity, ownership, already cancelled, lost race)
func IsConflictError(err error) bool {
	return strings.HasPrefix(string(GetErrorCode(err)), "CONFLICT_")
}

// IsDependencyError reports a failed side effect (notification, e-mail, push, lock backend)
func IsDependencyError(err error) bool {
	return strings.HasPrefix(string(GetErrorCode(err)), "DEPENDENCY_")
}

// Constructors return a fresh error each call so WithDetail never mutates shared state.

func ErrValidation(message string) *DomainError {
	return NewDomainError(ErrorCodeValidationFailed, message)
}

func ErrMissingField(field string) *DomainError {
	return NewDomainError(ErrorCodeValidationMissingField, field+" is required").WithDetail("field", field)
}

func ErrMealPlanNotFound(id string) *DomainError {
	return NewDomainError(ErrorCodeMealPlanNotFound, "meal plan not found").WithDetail("meal_plan_id", id)
}

func ErrSubscriptionNotFound(id string) *DomainError {
	return NewDomainError(ErrorCodeSubscriptionNotFound, "subscription not found").WithDetail("subscription_id", id)
}

func ErrOrderNotFound(id string) *DomainError {
	return NewDomainError(ErrorCodeOrderNotFound, "order not found").WithDetail("order_id", id)
}

func ErrNotificationNotFound(id string) *DomainError {
	return NewDomainError(ErrorCodeNotificationNotFound, "notification not found").WithDetail("notification_id", id)
}

func ErrRestaurantNotFound(id string) *DomainError {
	return NewDomainError(ErrorCodeRestaurantNotFound, "restaurant not found").WithDetail("restaurant_id", id)
}

func ErrCustomerNotFound(id string) *DomainError {
	return NewDomainError(ErrorCodeCustomerNotFound, "customer not found").WithDetail("user_id", id)
}

func ErrStaleState(message string) *DomainError {
	return NewDomainError(ErrorCodeStaleState, message)
}

func ErrDuplicateOrderSlot() *DomainError {
	return NewDomainError(ErrorCodeDuplicateOrderSlot, "order already exists for this slot")
}

func ErrSweepInProgress() *DomainError {
	return NewDomainError(ErrorCodeSweepInProgress, "sweep already in progress")
}

// AsDependency returns err unchanged when it is already a dependency error,
// otherwise wraps it under code
func AsDependency(code ErrorCode, message string, err error) error {
	if err == nil || IsDependencyError(err) {
		return err
	}
	return WrapError(code, message, err)
}
