package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"connectrpc.com/connect"

	"github.com/mmynk/nekolators/internal/receipt"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

// ErrNonFinite is returned when an expression resolves to an infinite or NaN
// amount, which cannot be stored or sent as JSON.
var ErrNonFinite = errors.New("amounts must be finite numbers")

// toConnectError maps domain errors onto Connect codes and logs the failure.
func toConnectError(op string, err error, args ...any) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, shortlink.ErrInvalidCode), errors.Is(err, ErrNonFinite), receipt.IsValidationError(err):
		code = connect.CodeInvalidArgument
	}

	if code == connect.CodeInternal {
		slog.Error(op+" failed", append(args, "error", err)...)
	} else {
		slog.Warn(op+" rejected", append(args, "error", err)...)
	}
	return connect.NewError(code, err)
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// finite reports whether every value is a finite number.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
