package cli

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// errInternal replaces a recovered panic; its details only go to the log.
var errInternal = errors.New("internal error")

// handler executes one REPL command.
type handler func(ctx context.Context, args []string) error

// withLogging logs the command name, outcome and duration. Arguments are
// never logged; they may carry indices next to secrets in future commands.
func withLogging(log *zap.Logger, name string, next handler) handler {
	return func(ctx context.Context, args []string) error {
		start := time.Now()
		err := next(ctx, args)
		fields := []zap.Field{
			zap.String("cmd", name),
			zap.Duration("dur", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, zap.String("err", err.Error()))
		}
		log.Debug("command", fields...)
		return err
	}
}

// withRecover turns a panic in next into errInternal.
func withRecover(log *zap.Logger, name string, next handler) handler {
	return func(ctx context.Context, args []string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("cmd", name),
				)
				err = errInternal
			}
		}()
		return next(ctx, args)
	}
}
