package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	dig_container "github.com/Abra313/socrease-lesson-note-management/apps/api/di/dig"
	echoapi "github.com/Abra313/socrease-lesson-note-management/apps/api/echo"
	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	appfs "github.com/Abra313/socrease-lesson-note-management/fs"
)

type app struct {
	conf     *core.Config
	logger   core.Logger
	dbLogger core.Logger
	db       *sqlx.DB
	server   *echoapi.Server
}

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *sqlx.DB,
		validate *validator.Validate,
		translator ut.Translator,
		server *echoapi.Server,
	) {
		a := app{conf: conf, logger: apiLogger, dbLogger: dbLoggerParam.Logger, db: db, server: server}

		a.logger.Info(fmt.Sprintf("LNMS %s starting (env %s, storage %s)", conf.Build, conf.Env, a.storage()))
		core.InitValidators(validate, translator)
		account.InitValidators(validate, translator)
		if err := core.ParseEmailTemplates(appfs.FS, conf, apiLogger); err != nil {
			a.logger.Fatal(fmt.Sprintf("loading email templates: %v", err), err)
		}

		defer a.closeDB()
		defer a.logger.Info("LNMS stopped")

		a.serveDebug()
		go server.Start()
		a.waitForShutdown()
	}))
}

func (a app) storage() string {
	if a.db == nil {
		return "in-memory"
	}
	return a.conf.Database.Engine + "@" + a.conf.Database.Address()
}

func (a app) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.dbLogger.Fatal("closing database", err)
	}
}

// serveDebug exposes pprof (/debug/pprof), expvar (/debug/vars) and
// prometheus (/metrics) on the debug host.
func (a app) serveDebug() {
	expvar.NewString("build").Set(a.conf.Build)
	expvar.NewString("env").Set(a.conf.Env)
	expvar.NewString("storage").Set(a.storage())
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(a.conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			a.logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()
}

// waitForShutdown blocks until the server fails or a shutdown is requested.
// Open editing sessions are closed before the listener stops.
func (a app) waitForShutdown() {
	select {
	case err := <-a.server.Errors():
		a.logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-a.server.ShutdownSignal():
		a.logger.Info(fmt.Sprintf("%v: shutting down", sig))

		ctx, cancel := context.WithTimeout(context.Background(), a.conf.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
			if err = a.server.Close(); err != nil {
				a.logger.Fatal(fmt.Sprintf("forced shutdown failed: %v", err), err)
			}
		}
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
