package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// handle runs h and converts a panic into an error.
func handle(ctx context.Context, driver string, h Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler",
				"driver", driver,
				"topic", msg.Topic(),
				"panic", rvr,
				"stack", stacktrace.InternalPaths(debug.Stack()),
			)
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return h(ctx, msg)
}
