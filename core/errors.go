package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	BridgeErrorParseFailed       = "BRIDGE_PARSE_FAILED"
	BridgeErrorOriginInvalid     = "BRIDGE_ORIGIN_INVALID"
	BridgeErrorQueueFull         = "BRIDGE_QUEUE_FULL"
	BridgeErrorUnknownOperation  = "BRIDGE_UNKNOWN_OPERATION"
	BridgeErrorInvalidArguments  = "BRIDGE_INVALID_ARGUMENTS"
	BridgeErrorOperationFailed   = "BRIDGE_OPERATION_FAILED"
	BridgeErrorSessionSuperseded = "BRIDGE_SESSION_SUPERSEDED"
	BridgeErrorInternal          = "BRIDGE_INTERNAL"
	BridgeErrorManifestPolicy    = "BRIDGE_MANIFEST_POLICY"
	BridgeErrorManifestFetch     = "BRIDGE_MANIFEST_FETCH"
)

// BridgeErrorMapper normalizes any error into the bridge's goerrors envelope
// so every surface (dispatch, command, query) reports the same taxonomy.
func BridgeErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return EnsureBridgeErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unknown operation"), strings.Contains(msg, "not routed"):
		return newBridgeError(err.Error(), goerrors.CategoryNotFound, BridgeErrorUnknownOperation)
	case strings.Contains(msg, "queue is full"), strings.Contains(msg, "admission"):
		return newBridgeError(err.Error(), goerrors.CategoryRateLimit, BridgeErrorQueueFull)
	case strings.Contains(msg, "superseded"), strings.Contains(msg, "stale session"):
		return newBridgeError(err.Error(), goerrors.CategoryConflict, BridgeErrorSessionSuperseded)
	case strings.Contains(msg, "origin"):
		return newBridgeError(err.Error(), goerrors.CategoryBadInput, BridgeErrorOriginInvalid)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "malformed"):
		return newBridgeError(err.Error(), goerrors.CategoryBadInput, BridgeErrorParseFailed)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return EnsureBridgeErrorEnvelope(mapped)
}

func newBridgeError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return EnsureBridgeErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

// EnsureBridgeErrorEnvelope fills the HTTP code and text code a rich error
// may be missing so downstream consumers always see a complete envelope.
func EnsureBridgeErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = BridgeHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultBridgeTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultBridgeTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return BridgeErrorParseFailed
	case goerrors.CategoryNotFound:
		return BridgeErrorUnknownOperation
	case goerrors.CategoryConflict:
		return BridgeErrorSessionSuperseded
	case goerrors.CategoryRateLimit:
		return BridgeErrorQueueFull
	case goerrors.CategoryOperation, goerrors.CategoryExternal, goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return BridgeErrorOperationFailed
	default:
		return BridgeErrorInternal
	}
}

// BridgeHTTPStatus maps an error category to the status carried on response
// envelopes. Capability rejections stay 400 for compatibility with the
// legacy surface; only explicit internal classifications become 500.
func BridgeHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryOperation, goerrors.CategoryExternal:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
