package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/iota-uz/hrm-lifecycle/modules"
	"github.com/iota-uz/hrm-lifecycle/pkg/application"
	"github.com/iota-uz/hrm-lifecycle/pkg/configuration"
	"github.com/iota-uz/hrm-lifecycle/pkg/eventbus"
	"github.com/iota-uz/hrm-lifecycle/pkg/metrics"
	"github.com/iota-uz/hrm-lifecycle/pkg/middleware"
	"github.com/iota-uz/hrm-lifecycle/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	app := application.New(&application.ApplicationOptions{
		Bundle:   application.LoadBundle(),
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	app.RegisterMiddleware(
		middleware.WithLogger(logger, middleware.LoggerOptions{
			RequestIDHeader: conf.RequestIDHeader,
			APIPrefixes:     []string{"/lifecycle/api"},
		}),
		middleware.ProvideLocalizer(app, conf.DefaultLocale()),
	)
	app.RegisterControllers(metrics.NewHealthController())
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverInstance := server.NewHTTPServer(app, nil, nil)
	logger.WithField("address", conf.SocketAddress).Info("lifecycle server listening")
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(ctx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
	conf.Unload()
}
