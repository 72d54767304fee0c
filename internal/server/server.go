package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/docgenie/internal/adapter/utils"
	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/handlers"
	"github.com/akolanti/docgenie/internal/middleware"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
	ready   = make(chan struct{})
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    func(ctx context.Context)
}

// NewHandler builds the full http handler: router, middleware chain and routes.
func NewHandler(cfg *config.Config, h *handlers.Handler) http.Handler {
	middleware.Init(cfg)
	router := utils.NewRouter(cfg.Server.CORSOrigins)
	middleware.Routes(router, h)
	return router
}

func CreateServer(cfg *config.Config, h *handlers.Handler) {
	_logger = logger_i.NewLogger("Server")

	server = &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      NewHandler(cfg, h),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	close(ready)

	_logger.Info("Server is listening at", "address", cfg.Server.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", cfg.Server.ListenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	<-ready
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "err", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices(ctx)
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
