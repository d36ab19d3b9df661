package dispatch

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-bridge/core"
)

func unknownOperationError(path string) error {
	return goerrors.New(fmt.Sprintf("unknown operation: %s", path), goerrors.CategoryNotFound).
		WithCode(404).
		WithTextCode(core.BridgeErrorUnknownOperation).
		WithMetadata(map[string]any{"path": path})
}

func invalidArgumentsError() error {
	return goerrors.New("request body is not valid JSON", goerrors.CategoryBadInput).
		WithCode(400).
		WithTextCode(core.BridgeErrorInvalidArguments)
}

func serializationError(path string) error {
	return goerrors.New("failed to serialize wallet result", goerrors.CategoryInternal).
		WithCode(500).
		WithTextCode(core.BridgeErrorInternal).
		WithMetadata(map[string]any{"path": path})
}
