package cmd

import (
	"context"
	"errors"
	"net/http"

	clierrors "github.com/salmonumbrella/apiform/internal/errors"
)

const (
	ExitOK       = 0
	ExitSystem   = 1
	ExitUser     = 2
	ExitNotFound = 4
	ExitUpstream = 6
	ExitCanceled = 130
)

// ExitCode maps a command error to a stable process exit code for automation.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}

	if clierrors.StatusCode(err) == http.StatusNotFound {
		return ExitNotFound
	}
	if clierrors.IsFetchError(err) || clierrors.IsExportError(err) {
		return ExitUpstream
	}
	// A parse error outside a fetch comes from --input.
	if clierrors.IsParseError(err) || clierrors.IsValidationError(err) || clierrors.IsUserError(err) {
		return ExitUser
	}

	return ExitSystem
}
