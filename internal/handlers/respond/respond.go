// Package respond holds the JSON envelope shared by the HTTP handlers
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the error envelope
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// JSON writes v with status
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case domain.IsDomainError(err, domain.ErrorCodeNotOwner),
		domain.IsDomainError(err, domain.ErrorCodePlanOwnerMismatch):
		return http.StatusForbidden
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsConflictError(err):
		return http.StatusConflict
	case domain.IsDependencyError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorBody. Internal errors are logged and their text is not returned.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := StatusFor(err)
	body := ErrorBody{Code: "INTERNAL", Message: "internal server error"}

	var de *domain.DomainError
	if status != http.StatusInternalServerError && errors.As(err, &de) {
		body = ErrorBody{Code: string(de.Code), Message: de.Message, Details: de.Details}
		if len(body.Details) == 0 {
			body.Details = nil
		}
	} else if status == http.StatusGatewayTimeout {
		body = ErrorBody{Code: "TIMEOUT", Message: "request timed out"}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", auth.GetRequestID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	JSON(w, status, map[string]ErrorBody{"error": body})
}

// BadRequest writes a VALIDATION_FAILED error with message
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, map[string]ErrorBody{"error": {
		Code:    string(domain.ErrorCodeValidationFailed),
		Message: message,
	}})
}

// Decode reads a JSON body into v, rejecting unknown fields and trailing data
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: trailing data")
	}
	return nil
}

// Warnings renders non-fatal side-effect failures for a response
func Warnings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
