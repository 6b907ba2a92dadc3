package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/engagelively/sdtp/internal"
	"github.com/engagelively/sdtp/internal/daemon"
	"github.com/engagelively/sdtp/internal/dispatch"
	"github.com/engagelively/sdtp/internal/listener"
	"github.com/engagelively/sdtp/internal/logging"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(daemon.ParseFlagsAndConfig()))
}

// run serves until SIGINT or SIGTERM and returns the exit code once all deferred cleanup has run.
func run(conf *daemon.ConfigFile) int {
	logs, err := logging.NewLogging("sdtp", conf.Logging)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cannot initialize logging:", err)
		return daemon.ExitFailure
	}

	logger := logs.GetLogger()
	defer logs.Sync()

	logger.Infof("Starting SDTP server (%s)", internal.Version.Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, closeTables, err := daemon.LoadTables(ctx, conf.Tables, logs.GetChildLogger("tables"))
	defer closeTables()
	if err != nil {
		logger.Errorw("Cannot load tables", zap.Error(err))
		return daemon.ExitFailure
	}
	logger.Infof("Serving %d tables", registry.Len())

	dispatcher, err := dispatch.NewDispatcher(registry, logs, conf.Workers, conf.RequestTimeout)
	if err != nil {
		logger.Errorw("Cannot create dispatcher", zap.Error(err))
		return daemon.ExitFailure
	}
	defer func() {
		if err := dispatcher.Close(conf.RequestTimeout); err != nil {
			logger.Warnw("Not all requests finished in time", zap.Error(err))
		}
	}()

	if err := listener.NewListener(conf.Listen, dispatcher, logs).Run(ctx); err != nil {
		logger.Errorw("Listener has finished with an error", zap.Error(err))
		return daemon.ExitFailure
	}

	logger.Info("Listener has finished")
	return daemon.ExitSuccess
}
