// @title           DocGenie API
// @version         1.0
// @description     Multi-turn question answering over uploaded PDF and DOCX documents.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/customHttpClient"
	"github.com/akolanti/docgenie/internal/data/store"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/handlers"
	"github.com/akolanti/docgenie/internal/job"
	"github.com/akolanti/docgenie/internal/rag/providers"
	"github.com/akolanti/docgenie/internal/server"
	"github.com/akolanti/docgenie/internal/session"
	"github.com/akolanti/docgenie/internal/worker"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

var (
	configPath        string
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	flag.StringVar(&configPath, "config", "docgenie.yaml", "path to an optional yaml config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address, overrides the config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger_i.Init(config.Default().Logging)
		logger_i.NewLogger("main").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	logger_i.Init(cfg.Logging)
	var logger = logger_i.NewLogger("main")

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	jobStore, turnStore, err := store.Open(serviceContext, cfg.Redis)
	if err != nil {
		logger.Error("could not open stores", "err", err)
		return
	}

	logger.Info("Starting job service")
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})

	deps, err := providers.NewDependencies(serviceContext, cfg, turnStore)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "err", err)
		return
	}
	manager := session.NewManager(deps)

	//uploads go under the working directory
	if _, err := handlers.GetTargetDirectory(""); err != nil {
		logger.Error("could not create the upload directory", "err", err)
		return
	}
	handler := handlers.NewHandler(manager, service, "")

	//init worker pool
	worker.InitServices(service, session.NewRunner(manager))
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices: func(ctx context.Context) {
			manager.Close(ctx)
			closeExternalServices()
			customHttpClient.CloseIdle()
		},
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(cfg, handler)

	<-stopExecution
	logger.Info("Server stopped")
}
