package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Serve runs server until ctx is cancelled, then shuts it down, giving
// in-flight requests up to shutdownTimeout to finish. A nil listener makes
// the server listen on server.Addr.
func Serve(ctx context.Context, server *http.Server, listener net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if listener != nil {
			logger.Info("http server listening", zap.String("addr", listener.Addr().String()))
			err = server.Serve(listener)
		} else {
			logger.Info("http server listening", zap.String("addr", server.Addr))
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down http server", zap.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	})

	return g.Wait()
}
