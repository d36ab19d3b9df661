package command

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-bridge/core"
)

func TestActivateSessionMessage_ValidateReturnsRichError(t *testing.T) {
	err := (ActivateSessionMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.BridgeErrorInvalidArguments {
		t.Fatalf("expected %q text code, got %q", core.BridgeErrorInvalidArguments, rich.TextCode)
	}
}

func TestActivateSessionCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *ActivateSessionCommand
	err := cmd.Execute(context.Background(), ActivateSessionMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.BridgeErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.BridgeErrorInternal, rich.TextCode)
	}
}
