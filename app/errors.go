package app

import (
	"context"
	"errors"

	"github.com/kilianp07/truckcharge/core/apperr"
)

// UserMessage turns a pipeline error into a message suitable for an operator.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "run cancelled before a schedule was produced"
	}
	var ae *apperr.Error
	detail := err.Error()
	if errors.As(err, &ae) {
		detail = ae.Message
		if ae.Err != nil {
			detail += ": " + ae.Err.Error()
		}
	}
	switch apperr.KindOf(err) {
	case apperr.InvalidArgument:
		return "invalid input: " + detail
	case apperr.DataUnavailable:
		return "data source unavailable: " + detail
	default:
		return "internal error, please report it with the logs"
	}
}
