package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// DownstreamErrorResponse is the error envelope returned by the catalog
// backend: {"error": {"code", "message", "fields"}}. Some endpoints answer
// with a flat {"message": "..."} body instead.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Upstream(serviceName,
			fmt.Errorf("status %d (failed to read body: %w)", resp.StatusCode, err))
	}
	return fromBody(resp.StatusCode, body, serviceName)
}

// FromError translates a transport-level error from Client or
// CircuitBreakerClient into an AppError. Context cancellation is returned
// unchanged so callers can tell an aborted request from a failed one.
func FromError(err error, serviceName string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return fromBody(srvErr.StatusCode, srvErr.Body, serviceName)
	}
	if errors.Is(err, ErrCircuitOpen) {
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: serviceName + " is temporarily unavailable",
			Status:  http.StatusServiceUnavailable,
			Err:     errors.Join(apperrors.ErrServiceUnavail, err),
		}
	}
	return apperrors.Upstream(serviceName, err)
}

func fromBody(status int, body []byte, serviceName string) error {
	var downstream DownstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil {
		if downstream.Error != nil {
			return mapDownstreamError(status, downstream.Error.Code,
				downstream.Error.Message, downstream.Error.Fields, serviceName)
		}
		if downstream.Message != "" {
			return mapDownstreamError(status, "", downstream.Message, nil, serviceName)
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return mapDownstreamError(status, "", msg, nil, serviceName)
}

func mapDownstreamError(status int, code, message string, fields map[string]string, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: qualified,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest && len(fields) > 0,
		status == http.StatusUnprocessableEntity && len(fields) > 0:
		return apperrors.Validation(fields)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		if code == "ALREADY_EXISTS" {
			return &apperrors.AppError{
				Code:    code,
				Message: qualified,
				Status:  http.StatusConflict,
				Err:     apperrors.ErrAlreadyExists,
			}
		}
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.Unavailable(qualified)
	case status >= 500:
		return apperrors.Upstream(serviceName,
			fmt.Errorf("status %d (%s): %s", status, code, message))
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
