// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accesscontrol

import (
	"errors"
	"net/http"
)

// Code classifies a failed privileged operation. Every error surfaced to a
// caller of the admin API carries exactly one of these.
type Code string

const (
	CodeUnauthorized Code = "Unauthorized"
	CodeForbidden    Code = "Forbidden"
	CodeBadRequest   Code = "BadRequest"
	CodeNotFound     Code = "NotFound"
	CodeRateLimited  Code = "RateLimited"
	CodeInternal     Code = "Internal"
)

// Error is a classified failure with a caller-safe message. Internal detail
// belongs in logs, never in Message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Unauthorized(message string) *Error { return NewError(CodeUnauthorized, message) }
func Forbidden(message string) *Error    { return NewError(CodeForbidden, message) }
func BadRequest(message string) *Error   { return NewError(CodeBadRequest, message) }
func NotFound(message string) *Error     { return NewError(CodeNotFound, message) }
func RateLimited(message string) *Error  { return NewError(CodeRateLimited, message) }
func Internal(message string) *Error     { return NewError(CodeInternal, message) }

// CodeOf extracts the classification from err, defaulting to Internal for
// unclassified errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps a classified error to its response status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
