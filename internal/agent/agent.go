package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	config "github.com/mwantia/evtrec/internal/config/server"
	evhttp "github.com/mwantia/evtrec/internal/http"
	"github.com/mwantia/evtrec/internal/http/handler"
	"github.com/mwantia/evtrec/pkg/log"
	"github.com/mwantia/evtrec/pkg/tenant"
	"github.com/mwantia/fabric/pkg/container"
)

type EvtrecAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg      *config.BaseServerConfig
	sc       *container.ServiceContainer
	log      log.LoggerService
	services *Services
	server   *http.Server
}

func NewAgent(cfg *config.BaseServerConfig) *EvtrecAgent {
	return &EvtrecAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("evtrec", cfg.Log),
	}
}

func (a *EvtrecAgent) setupServices(ctx context.Context) error {
	errs := container.Errors{}

	a.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](a.sc,
		container.With[log.LoggerService](),
		container.WithInstance(a.log)))

	if err := errs.Errors(); err != nil {
		return err
	}

	services, err := OpenServices(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	a.services = services

	a.log.Debug("Registering 'Manager'...")
	errs.Add(container.Register[*tenant.Manager](a.sc,
		container.With[handler.Tenants](),
		container.WithInstance(services.Manager)))

	return errs.Errors()
}

func (a *EvtrecAgent) setupServer(ctx context.Context) error {
	logger, err := log.ResolveNamed(ctx, a.sc, "http")
	if err != nil {
		return err
	}

	tenants, err := container.Resolve[handler.Tenants](ctx, a.sc)
	if err != nil {
		return fmt.Errorf("failed to resolve tenant manager: %w", err)
	}

	readHeaderTimeout, err := time.ParseDuration(a.cfg.Http.ReadHeaderTimeout)
	if err != nil {
		readHeaderTimeout = 10 * time.Second
	}

	a.server = &http.Server{
		Addr:              a.cfg.Http.Address,
		Handler:           evhttp.NewRouter(a.cfg.Http, tenants, a.cfg.Storage.MaxUploadBytes, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return nil
}

func (a *EvtrecAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.mutex.Lock()

	if err := a.setupServices(ctx); err != nil {
		a.mutex.Unlock()
		a.cleanup()
		return err
	}
	if err := a.setupServer(ctx); err != nil {
		a.mutex.Unlock()
		a.cleanup()
		return err
	}

	a.mutex.Unlock()

	serveErr := make(chan error, 1)
	a.wait.Add(1)
	go func() {
		defer a.wait.Done()

		a.log.Info("Serving HTTP API on '%s' (folders in '%s')", a.cfg.Http.Address, a.services.Registry.BaseDir())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down...")
	case runErr = <-serveErr:
		a.log.Error("HTTP server failed: %v", runErr)
	}

	if err := a.shutdown(); err != nil {
		return err
	}
	return runErr
}

func (a *EvtrecAgent) shutdown() error {
	timeout, err := time.ParseDuration(a.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.server.Shutdown(shutdown); err != nil {
		a.log.Warn("HTTP server did not shut down cleanly: %v", err)
	}
	a.wait.Wait()

	if err := a.services.Close(shutdown); err != nil {
		a.log.Warn("Failed to close storage services: %v", err)
	}

	if err := a.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}
	return nil
}

// cleanup releases whatever setup managed to open before failing.
func (a *EvtrecAgent) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.services != nil {
		if err := a.services.Close(ctx); err != nil {
			a.log.Warn("Failed to close storage services: %v", err)
		}
	}
	if err := a.sc.Cleanup(ctx); err != nil {
		a.log.Warn("Failed to clean up service container: %v", err)
	}
}
