package api

import (
	"encoding/json"
	"fmt"
)

// QuotaError is a structured 429 on job creation. Message carries the
// server-supplied human-readable text verbatim.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string {
	return e.Message
}

// NotFoundError reports that the target resource no longer exists, for
// example a job deleted concurrently with an update.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConnectivityError means no response was received at all.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("request failed before a response arrived: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// TimeoutError means the response did not arrive within the configured
// budget. It is delivered, never left pending.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// APIError is any other non-success response, carrying the best message the
// error envelope offered.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// errorEnvelope matches the two envelope shapes the backend emits:
// {"detail":{"message":...}} on the job endpoints and
// {"error":{"message":...}} on the auth endpoints.
type errorEnvelope struct {
	Detail *errorBody `json:"detail"`
	Err    *errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
}

// extractMessage pulls a human-readable message out of an error response
// body, best effort.
func extractMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Detail != nil && envelope.Detail.Message != "" {
		return envelope.Detail.Message
	}
	if envelope.Err != nil && envelope.Err.Message != "" {
		return envelope.Err.Message
	}
	return ""
}
