// Package response implements the JSON envelope shared by all API handlers.
package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError represents an API error
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Meta represents response metadata
type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty"`
	Count      *int64      `json:"count,omitempty"`
	Version    string      `json:"version,omitempty"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	TotalCount int64 `json:"total_count"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ResponseWriter provides utility methods for writing API responses
type ResponseWriter struct {
	w         http.ResponseWriter
	requestID string
}

// NewResponseWriter creates a new response writer
func NewResponseWriter(w http.ResponseWriter, requestID string) *ResponseWriter {
	return &ResponseWriter{
		w:         w,
		requestID: requestID,
	}
}

// Success writes a successful response
func (rw *ResponseWriter) Success(data interface{}, meta *Meta) {
	response := APIResponse{
		Success:   true,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now(),
		RequestID: rw.requestID,
	}

	rw.writeJSON(http.StatusOK, response)
}

// Created writes a created response (201)
func (rw *ResponseWriter) Created(data interface{}) {
	response := APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rw.requestID,
	}

	rw.writeJSON(http.StatusCreated, response)
}

// Error writes an error response
func (rw *ResponseWriter) Error(statusCode int, code, message string, details interface{}) {
	rw.ErrorWithHint(statusCode, code, message, "", details)
}

// ErrorWithHint writes an error response carrying a corrective hint
func (rw *ResponseWriter) ErrorWithHint(statusCode int, code, message, hint string, details interface{}) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Hint:    hint,
			Details: details,
		},
		Timestamp: time.Now(),
		RequestID: rw.requestID,
	}

	rw.writeJSON(statusCode, response)
}

// BadRequest writes a bad request error (400)
func (rw *ResponseWriter) BadRequest(message string, details interface{}) {
	rw.Error(http.StatusBadRequest, ErrorCodeBadRequest, message, details)
}

// NotFound writes a not found error (404)
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrorCodeNotFound, message, nil)
}

// UnprocessableEntity writes an unprocessable entity error (422)
func (rw *ResponseWriter) UnprocessableEntity(message string, details interface{}) {
	rw.Error(http.StatusUnprocessableEntity, ErrorCodeUnprocessableEntity, message, details)
}

// InternalServerError writes an internal server error (500)
func (rw *ResponseWriter) InternalServerError(message string, details interface{}) {
	rw.Error(http.StatusInternalServerError, ErrorCodeInternalError, message, details)
}

// ServiceUnavailable writes a service unavailable error (503)
func (rw *ResponseWriter) ServiceUnavailable(message, hint string) {
	rw.ErrorWithHint(http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, message, hint, nil)
}

// FailedDependency writes a failed dependency error (424)
func (rw *ResponseWriter) FailedDependency(message, hint string) {
	rw.ErrorWithHint(http.StatusFailedDependency, ErrorCodeMissingDependency, message, hint, nil)
}

// ValidationError writes a validation error response
func (rw *ResponseWriter) ValidationError(errors interface{}) {
	rw.Error(http.StatusBadRequest, ErrorCodeValidationError, "Validation failed", errors)
}

// Paginated writes a paginated response
func (rw *ResponseWriter) Paginated(data interface{}, page, pageSize int, totalCount int64) {
	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	pagination := &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: totalCount,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}

	meta := &Meta{
		Pagination: pagination,
		Count:      &totalCount,
	}

	rw.Success(data, meta)
}

// writeJSON writes a JSON response
func (rw *ResponseWriter) writeJSON(statusCode int, data interface{}) {
	rw.w.Header().Set("Content-Type", "application/json")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(data); err != nil {
		http.Error(rw.w, "Internal server error", http.StatusInternalServerError)
	}
}

// Helper functions for common responses

// WriteSuccess writes a success response with optional metadata
func WriteSuccess(w http.ResponseWriter, requestID string, data interface{}, meta *Meta) {
	NewResponseWriter(w, requestID).Success(data, meta)
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, requestID string, statusCode int, code, message string, details interface{}) {
	NewResponseWriter(w, requestID).Error(statusCode, code, message, details)
}

// WriteBadRequest writes a bad request error
func WriteBadRequest(w http.ResponseWriter, requestID string, message string, details interface{}) {
	NewResponseWriter(w, requestID).BadRequest(message, details)
}

// WriteInternalServerError writes an internal server error
func WriteInternalServerError(w http.ResponseWriter, requestID string, message string, details interface{}) {
	NewResponseWriter(w, requestID).InternalServerError(message, details)
}

// WritePaginated writes a paginated response
func WritePaginated(w http.ResponseWriter, requestID string, data interface{}, page, pageSize int, totalCount int64) {
	NewResponseWriter(w, requestID).Paginated(data, page, pageSize, totalCount)
}

// ErrorCode constants
const (
	ErrorCodeBadRequest          = "BAD_REQUEST"
	ErrorCodeNotFound            = "NOT_FOUND"
	ErrorCodeValidationError     = "VALIDATION_ERROR"
	ErrorCodeInternalError       = "INTERNAL_SERVER_ERROR"
	ErrorCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrorCodeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrorCodeUnprocessableEntity = "UNPROCESSABLE_ENTITY"

	// Business logic error codes
	ErrorCodeInvalidFileFormat = "INVALID_FILE_FORMAT"
	ErrorCodeMissingDependency = "MISSING_DEPENDENCY"
	ErrorCodeEmptyText         = "EMPTY_TEXT"
)
