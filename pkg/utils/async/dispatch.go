package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/utils/logging"
)

// Dispatch runs a handler in a new goroutine with a fresh background context.
// The request-scoped logger is carried over so the handler's logs stay
// correlated. Panics and errors are logged, never propagated: a failing
// handler must not affect the caller.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
