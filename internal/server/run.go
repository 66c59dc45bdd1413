// internal/server/run.go
//
// Serve until the context ends, then drain.
//
// Context
// -------
// cmd/web passes a context cancelled by SIGINT / SIGTERM.  Run returns
// nil after a clean drain, the listener error if the server could not
// start, or the Shutdown error when in-flight requests outlive grace.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Run calls srv.ListenAndServe and shuts it down gracefully when ctx is
// done.
func Run(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zap.S().Infow("http server draining", "grace", grace)
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	<-errCh
	return nil
}
