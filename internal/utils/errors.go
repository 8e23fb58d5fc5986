package utils

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/mahirjain10/pdf-ocr-worker/internal/muhimbi"
)

// IsTransientError reports whether a failed job is worth requeueing. OCR
// failures never are: the service either judged the document or the request
// already failed once and is not retried.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	var cancelled *muhimbi.CancelledError
	if errors.As(err, &cancelled) || errors.Is(err, context.Canceled) {
		return true
	}

	var (
		transportErr *muhimbi.TransportError
		statusErr    *muhimbi.HTTPStatusError
		parseErr     *muhimbi.ParseError
		resultErr    *muhimbi.ResultError
	)
	if errors.As(err, &transportErr) || errors.As(err, &statusErr) || errors.As(err, &parseErr) || errors.As(err, &resultErr) {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "connection reset")
}

// IsFatalError reports infrastructure failures that should stop the worker.
func IsFatalError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "AccessDenied", "ExpiredToken":
			return true
		}
	}

	errorStr := strings.ToLower(err.Error())

	// RabbitMQ connection issues
	if strings.Contains(errorStr, "connection closed") || strings.Contains(errorStr, "channel closed") {
		return true
	}

	// System resource issues
	if strings.Contains(errorStr, "no space left") || strings.Contains(errorStr, "out of memory") {
		return true
	}

	return false
}
