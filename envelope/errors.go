package envelope

import (
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-bridge/core"
)

func parseError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(400).
		WithTextCode(core.BridgeErrorParseFailed)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// RecoveredRequestID extracts the heuristic request id attached to a parse
// failure, when the raw-text scan found one.
func RecoveredRequestID(err error) (int64, bool) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return 0, false
	}
	value, ok := richErr.Metadata["request_id"]
	if !ok {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}
