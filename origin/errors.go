package origin

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-bridge/core"
)

func originError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(400).
		WithTextCode(core.BridgeErrorOriginInvalid)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func resolveError(headers map[string]string) error {
	metadata := map[string]any{}
	if value := strings.TrimSpace(headers["origin"]); value != "" {
		metadata["origin"] = value
	}
	if value := strings.TrimSpace(headers["originator"]); value != "" {
		metadata["originator"] = value
	}
	return originError("request carries no resolvable origin", metadata)
}
