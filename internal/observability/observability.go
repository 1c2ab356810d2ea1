package observability

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

// Setup starts tracing, profiling and the pprof listener. The returned
// shutdown stops them in reverse order and is safe to call when Setup only
// partly succeeded.
func Setup(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	var stops []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(stops) - 1; i >= 0; i-- {
			if err := stops[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	shutdownTracing, err := InitUptrace(cfg, logger)
	if err != nil {
		return shutdown, err
	}
	stops = append(stops, shutdownTracing)

	stopProfiler, err := InitPyroscope(cfg, logger)
	if err != nil {
		return shutdown, err
	}
	stops = append(stops, func(context.Context) error { return stopProfiler() })

	pprofSrv, err := StartPprofServer(cfg, logger)
	if err != nil {
		return shutdown, err
	}
	stops = append(stops, func(ctx context.Context) error {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		return StopPprofServer(pprofSrv, logger, timeout)
	})

	return shutdown, nil
}
